// Package fonts is the service facade: validator, asset store, registry and
// stylesheet generator are called explicitly and in order from here.
package fonts

import (
	"context"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chrmrtns/safefonts/biz"
	"github.com/chrmrtns/safefonts/biz/registry"
	"github.com/chrmrtns/safefonts/biz/settings"
	"github.com/chrmrtns/safefonts/pkg/assets"
	"github.com/chrmrtns/safefonts/pkg/fontcheck"
	"github.com/chrmrtns/safefonts/pkg/fontcss"
	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/fontinfo"
	"github.com/chrmrtns/safefonts/pkg/logx"
)

type Service struct {
	Registry *registry.Registry
	Store    assets.Store
	Settings *settings.Store
	CSS      *fontcss.Generator

	// Detect 覆盖 MIME 探测, 测试使用
	Detect fontcheck.Detector

	validate *validator.Validate
	log      *logrus.Entry
}

func NewService(reg *registry.Registry, store assets.Store, set *settings.Store, gen *fontcss.Generator) *Service {
	return &Service{
		Registry: reg,
		Store:    store,
		Settings: set,
		CSS:      gen,
		validate: validator.New(),
		log:      logrus.WithField("module", "fonts"),
	}
}

type UploadInput struct {
	Family   string `json:"font_family" validate:"required,max=255"`
	Weight   string `json:"font_weight" validate:"required,oneof=100 200 300 400 500 600 700 800 900"`
	Style    string `json:"font_style"  validate:"required,oneof=normal italic"`
	Filename string `json:"filename"    validate:"required,max=255"`

	// File 为空或 Size 为 0 时由校验器报告 EmptyFile
	File io.ReaderAt `json:"-"`
	Size int64       `json:"-"`
}

// Upload 校验, 写文件, 写记录, 重新生成 CSS. 记录写入失败时删除已写入的文件.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*biz.FontVariant, error) {
	log := logx.LoggerWith(ctx, s.log)

	if in.Weight == "" {
		in.Weight = "400"
	}
	if in.Style == "" {
		in.Style = "normal"
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fonterr.Wrap(err, fonterr.InvalidInput, "Invalid font details")
	}

	set, err := s.Settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	checker := set.Checker()
	checker.Detect = s.Detect
	res, err := checker.Check(in.File, in.Size, in.Filename)
	if err != nil {
		log.WithField("family", in.Family).Infof("upload rejected: %v", err)
		return nil, err
	}

	obj, err := s.Store.Write(ctx, io.NewSectionReader(in.File, 0, in.Size), in.Family, in.Filename)
	if err != nil {
		return nil, err
	}

	v := &biz.FontVariant{
		FontFamily: in.Family,
		FamilySlug: slugOf(obj.Path),
		FontStyle:  in.Style,
		FontWeight: in.Weight,
		FilePath:   obj.Path,
		FileHash:   obj.Hash,
		FileSize:   obj.Size,
		MimeType:   res.MimeType,
	}
	if _, err := s.Registry.Insert(ctx, v); err != nil {
		if derr := s.Store.Delete(ctx, obj.Path); derr != nil {
			log.WithError(derr).Warnf("rollback of %s failed", obj.Path)
		}
		return nil, err
	}

	log.WithField("family", v.FontFamily).WithField("path", v.FilePath).Info("font uploaded")
	s.regenerateLogged(ctx)
	return v, nil
}

// Delete 删除记录和文件; 记录不存在时返回 RecordNotFound
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.deleteOne(ctx, id); err != nil {
		return err
	}
	s.regenerateLogged(ctx)
	return nil
}

func (s *Service) deleteOne(ctx context.Context, id int64) error {
	log := logx.LoggerWith(ctx, s.log)

	v, err := s.Registry.Get(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.Registry.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fonterr.New(fonterr.RecordNotFound, "Font not found")
	}
	if err := s.Store.Delete(ctx, v.FilePath); err != nil {
		// 记录已删除, 文件残留只记日志
		log.WithError(err).Warnf("remove font file %s", v.FilePath)
	}
	log.WithField("id", id).WithField("path", v.FilePath).Info("font deleted")
	return nil
}

type BulkResult struct {
	Deleted int     `json:"deleted_count"`
	Failed  []int64 `json:"failed"`
}

// BulkDelete 逐个删除, 部分失败不影响其余, 最后只重新生成一次 CSS
func (s *Service) BulkDelete(ctx context.Context, ids []int64) *BulkResult {
	res := &BulkResult{Failed: []int64{}}
	for _, id := range ids {
		if err := s.deleteOne(ctx, id); err != nil {
			logx.LoggerWith(ctx, s.log).WithField("id", id).Debugf("bulk delete: %v", err)
			res.Failed = append(res.Failed, id)
			continue
		}
		res.Deleted++
	}
	if res.Deleted > 0 {
		s.regenerateLogged(ctx)
	}
	return res
}

func (s *Service) List(ctx context.Context) ([]biz.FontVariant, error) {
	return s.Registry.All(ctx)
}

func (s *Service) Families(ctx context.Context) ([]registry.Family, error) {
	return s.Registry.GroupedByFamily(ctx)
}

func (s *Service) faces(ctx context.Context) ([]fontcss.Face, error) {
	list, err := s.Registry.All(ctx)
	if err != nil {
		return nil, err
	}
	return biz.Faces(list), nil
}

// Regenerate 由注册表完整重建 fonts.css
func (s *Service) Regenerate(ctx context.Context) error {
	faces, err := s.faces(ctx)
	if err != nil {
		return err
	}
	if err := s.Store.PutArtifact(ctx, fontcss.StylesheetName, s.CSS.CSS(faces)); err != nil {
		return err
	}
	logx.LoggerWith(ctx, s.log).Debugf("%s regenerated with %d faces", fontcss.StylesheetName, len(faces))
	return nil
}

// regenerateLogged 变更已提交, CSS 生成失败不回滚; 下次读取时会重建
func (s *Service) regenerateLogged(ctx context.Context) {
	if err := s.Regenerate(ctx); err != nil {
		logx.LoggerWith(ctx, s.log).WithError(err).Error("regenerate stylesheet")
	}
}

// Stylesheet 返回 fonts.css 内容, 文件缺失时重建
func (s *Service) Stylesheet(ctx context.Context) ([]byte, time.Time, error) {
	data, mod, err := s.Store.ReadArtifact(ctx, fontcss.StylesheetName)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.Regenerate(ctx); err != nil {
			return nil, time.Time{}, err
		}
		data, mod, err = s.Store.ReadArtifact(ctx, fontcss.StylesheetName)
	}
	return data, mod, err
}

// StylesheetURL 带修改时间作为版本号的 URL
func (s *Service) StylesheetURL(ctx context.Context) (string, error) {
	mod, ok, err := s.Store.StatArtifact(ctx, fontcss.StylesheetName)
	if err != nil {
		return "", err
	}
	if !ok {
		if err := s.Regenerate(ctx); err != nil {
			return "", err
		}
		if mod, _, err = s.Store.StatArtifact(ctx, fontcss.StylesheetName); err != nil {
			return "", err
		}
	}
	return s.CSS.StylesheetURL(mod.Unix()), nil
}

func (s *Service) EditorFamilies(ctx context.Context) ([]fontcss.FontFamily, error) {
	faces, err := s.faces(ctx)
	if err != nil {
		return nil, err
	}
	return s.CSS.EditorFamilies(fontcss.GroupFaces(faces)), nil
}

// Collection 没有字体时返回 nil
func (s *Service) Collection(ctx context.Context) (*fontcss.Collection, error) {
	faces, err := s.faces(ctx)
	if err != nil {
		return nil, err
	}
	return s.CSS.Collection(fontcss.GroupFaces(faces)), nil
}

func (s *Service) PreloadHints(ctx context.Context) ([]fontcss.PreloadHint, error) {
	set, err := s.Settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	faces, err := s.faces(ctx)
	if err != nil {
		return nil, err
	}
	hints := s.CSS.PreloadHints(faces, set.PreloadFonts)
	if hints == nil {
		hints = []fontcss.PreloadHint{}
	}
	return hints, nil
}

func (s *Service) PreloadOptions(ctx context.Context) ([]fontcss.PreloadFamily, error) {
	set, err := s.Settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	faces, err := s.faces(ctx)
	if err != nil {
		return nil, err
	}
	return fontcss.PreloadOptions(fontcss.GroupFaces(faces), set.PreloadFonts), nil
}

// Inspect 读取 ttf/otf 的名称信息, 先按当前配置做格式校验
func (s *Service) Inspect(ctx context.Context, data []byte, filename string) (*fontinfo.Info, error) {
	set, err := s.Settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	checker := set.Checker()
	checker.Detect = s.Detect
	res, err := checker.CheckBytes(data, filename)
	if err != nil {
		return nil, err
	}
	info, err := fontinfo.Inspect(data, res.Extension)
	if errors.Is(err, fontinfo.ErrUnsupported) {
		return nil, fonterr.New(fonterr.DisallowedExtension, "Only TTF and OTF files can be inspected")
	}
	if err != nil {
		return nil, fonterr.Wrap(err, fonterr.SignatureMismatch, "The font file could not be parsed")
	}
	return info, nil
}

func (s *Service) LoadSettings(ctx context.Context) (settings.Settings, error) {
	return s.Settings.Load(ctx)
}

func (s *Service) SaveSettings(ctx context.Context, set settings.Settings) error {
	return s.Settings.Save(ctx, set)
}

// Purge 删除全部字体文件和生成的 CSS; 数据表由调用方回滚迁移删除
func (s *Service) Purge(ctx context.Context) error {
	if err := s.Store.Purge(ctx); err != nil {
		return err
	}
	s.Registry.InvalidateCache(ctx)
	logx.LoggerWith(ctx, s.log).Warn("all font files purged")
	return nil
}

func slugOf(rel string) string {
	dir, _, ok := strings.Cut(rel, "/")
	if !ok {
		return ""
	}
	return dir
}
