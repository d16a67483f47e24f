// Package settings persists the runtime options in the safefonts_options
// table, one JSON encoded value per key.
package settings

import (
	"context"
	"sort"
	"strings"

	"github.com/fatih/structs"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"xorm.io/xorm"

	"github.com/chrmrtns/safefonts/biz"
	"github.com/chrmrtns/safefonts/pkg/fontcheck"
	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/logx"
)

const (
	MaxFileSizeLimit int64 = 100 << 20

	keyVersion = "version"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Settings struct {
	MaxFileSize           int64    `json:"max_file_size"            validate:"min=1,max=104857600"`
	AllowedTypes          []string `json:"allowed_types"            validate:"required,min=1,dive,oneof=woff2 woff ttf otf"`
	PreloadFonts          []string `json:"preload_fonts"            validate:"dive,max=300"`
	DeleteDataOnUninstall bool     `json:"delete_data_on_uninstall"`
}

func Defaults() Settings {
	return Settings{
		MaxFileSize:  fontcheck.DefaultMaxSize,
		AllowedTypes: append([]string(nil), fontcheck.DefaultExtensions...),
		PreloadFonts: []string{},
	}
}

// Checker 按当前配置构造校验器
func (s Settings) Checker() *fontcheck.Checker {
	return fontcheck.New(s.MaxFileSize, s.AllowedTypes)
}

// Keys 所有配置项的 key
func Keys() []string {
	st := structs.New(Defaults())
	st.TagName = "json"
	keys := make([]string, 0)
	for k := range st.Map() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Store struct {
	db       *xorm.Engine
	validate *validator.Validate
	log      *logrus.Entry
}

func New(db *xorm.Engine) *Store {
	return &Store{
		db:       db,
		validate: validator.New(),
		log:      logrus.WithField("module", "settings"),
	}
}

// Load 读取配置; 缺失或损坏的值回退为默认值
func (s *Store) Load(ctx context.Context) (Settings, error) {
	log := logx.LoggerWith(ctx, s.log)

	rows := make([]biz.Option, 0)
	if err := s.db.Context(ctx).In("name", Keys()).Find(&rows); err != nil {
		return Settings{}, errors.Wrap(err, "load settings")
	}

	m := map[string]any{}
	for _, row := range rows {
		var v any
		if err := json.UnmarshalFromString(row.Value, &v); err != nil {
			log.WithError(err).Warnf("ignore corrupt option %s", row.Name)
			continue
		}
		m[row.Name] = v
	}

	// 切片按元素覆盖, 不清零会残留默认值
	out := Defaults()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return Settings{}, errors.WithStack(err)
	}
	if err := dec.Decode(m); err != nil {
		// 类型错误的值整体回退
		log.WithError(err).Warn("settings could not be decoded, using defaults")
		out = Defaults()
	}
	return normalize(out), nil
}

// normalize 修正无效的值
func normalize(s Settings) Settings {
	if s.MaxFileSize <= 0 || s.MaxFileSize > MaxFileSizeLimit {
		s.MaxFileSize = fontcheck.DefaultMaxSize
	}

	seen := map[string]bool{}
	types := make([]string, 0, len(s.AllowedTypes))
	for _, t := range s.AllowedTypes {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(t, ".")))
		if fontcheck.KnownExtension(t) && !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		types = append(types, fontcheck.DefaultExtensions...)
	}
	s.AllowedTypes = types

	if s.PreloadFonts == nil {
		s.PreloadFonts = []string{}
	}
	return s
}

// Save 校验后写入全部配置项
func (s *Store) Save(ctx context.Context, set Settings) error {
	if err := s.validate.Struct(set); err != nil {
		return fonterr.Wrap(err, fonterr.InvalidInput, "Invalid settings")
	}
	set = normalize(set)

	st := structs.New(set)
	st.TagName = "json"
	values := map[string]string{}
	for name, v := range st.Map() {
		raw, err := json.MarshalToString(v)
		if err != nil {
			return errors.Wrapf(err, "encode option %s", name)
		}
		values[name] = raw
	}
	return s.put(ctx, values)
}

// Get 读取原始 JSON 值
func (s *Store) Get(ctx context.Context, name string) (string, bool, error) {
	var row biz.Option
	has, err := s.db.Context(ctx).ID(name).Get(&row)
	if err != nil {
		return "", false, errors.Wrapf(err, "get option %s", name)
	}
	return row.Value, has, nil
}

// Version 返回已安装的数据版本, 未安装时为空
func (s *Store) Version(ctx context.Context) (string, error) {
	raw, ok, err := s.Get(ctx, keyVersion)
	if err != nil || !ok {
		return "", err
	}
	var v string
	if err := json.UnmarshalFromString(raw, &v); err != nil {
		return "", nil
	}
	return v, nil
}

func (s *Store) SetVersion(ctx context.Context, version string) error {
	raw, _ := json.MarshalToString(version)
	return s.put(ctx, map[string]string{keyVersion: raw})
}

// put 在一个事务中 upsert
func (s *Store) put(ctx context.Context, values map[string]string) error {
	sess := s.db.NewSession()
	defer sess.Close()
	sess.Context(ctx)

	if err := sess.Begin(); err != nil {
		return errors.Wrap(err, "begin")
	}
	for name, value := range values {
		has, err := sess.Exist(&biz.Option{Name: name})
		if err != nil {
			return errors.Wrapf(err, "check option %s", name)
		}
		row := &biz.Option{Name: name, Value: value}
		if has {
			_, err = sess.ID(name).Cols("value").Update(row)
		} else {
			_, err = sess.Insert(row)
		}
		if err != nil {
			return errors.Wrapf(err, "save option %s", name)
		}
	}
	return errors.Wrap(sess.Commit(), "commit settings")
}
