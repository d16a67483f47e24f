package biz

import (
	"time"

	"github.com/chrmrtns/safefonts/pkg/fontcss"
)

// Version 当前数据版本, 写入 options 表的 version, 也是缓存 key 的一部分
const Version = "1.2.0"

// FontVariant 一个上传的字体文件
type FontVariant struct {
	ID         int64  `xorm:"bigint not null pk 'id'"                              json:"id,string"` // 雪花ID
	FontFamily string `xorm:"varchar(255) not null 'font_family'"                 json:"font_family"`
	FamilySlug string `xorm:"varchar(255) not null default '' 'family_slug'"      json:"family_slug"` // 目录名, 由 FontFamily 生成
	FontStyle  string `xorm:"varchar(50) not null default 'normal' 'font_style'"  json:"font_style"`  // normal | italic
	FontWeight string `xorm:"varchar(50) not null default '400' 'font_weight'"    json:"font_weight"` // 100 .. 900
	FilePath   string `xorm:"varchar(500) not null 'file_path'"                   json:"file_path"`   // {family_slug}/{file}
	FileHash   string `xorm:"varchar(64) not null 'file_hash'"                    json:"file_hash"`   // SHA-256 hex
	FileSize   int64  `xorm:"bigint not null 'file_size'"                         json:"file_size"`
	MimeType   string `xorm:"varchar(100) not null default '' 'mime_type'"        json:"mime_type"`

	CreatedAt time.Time `xorm:"created 'created_at'" json:"created_at"`
	UpdatedAt time.Time `xorm:"updated 'updated_at'" json:"updated_at"`
}

func (v *FontVariant) TableName() string { return "safefonts_fonts" }

// Face 转换为 CSS 生成器使用的结构
func (v *FontVariant) Face() fontcss.Face {
	return fontcss.Face{
		ID:     v.ID,
		Family: v.FontFamily,
		Slug:   v.FamilySlug,
		Style:  v.FontStyle,
		Weight: v.FontWeight,
		Path:   v.FilePath,
	}
}

func Faces(list []FontVariant) []fontcss.Face {
	faces := make([]fontcss.Face, 0, len(list))
	for i := range list {
		faces = append(faces, list[i].Face())
	}
	return faces
}

// Option 键值配置, Value 为 JSON
type Option struct {
	Name      string    `xorm:"varchar(191) not null pk 'name'" json:"name"`
	Value     string    `xorm:"text 'value'"                    json:"value"`
	UpdatedAt time.Time `xorm:"updated 'updated_at'"            json:"updated_at"`
}

func (o *Option) TableName() string { return "safefonts_options" }
