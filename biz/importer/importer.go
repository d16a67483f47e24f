// Package importer uploads a batch of font files described by a YAML
// manifest through the regular upload path.
package importer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/chrmrtns/safefonts/biz/fonts"
	"github.com/chrmrtns/safefonts/pkg/fontcheck"
	"github.com/chrmrtns/safefonts/pkg/fonterr"
	"github.com/chrmrtns/safefonts/pkg/fontinfo"
	"github.com/chrmrtns/safefonts/pkg/logx"
)

type Imported struct {
	File string `json:"file"`
	ID   int64  `json:"id,string"`
	Path string `json:"path"`
}

type Failure struct {
	File  string       `json:"file"`
	Kind  fonterr.Kind `json:"kind"`
	Error string       `json:"error"`
}

type Result struct {
	Imported []Imported `json:"imported"`
	Failed   []Failure  `json:"failed"`
}

type Importer struct {
	Fonts *fonts.Service
	log   *logrus.Entry
}

func New(svc *fonts.Service) *Importer {
	return &Importer{Fonts: svc, log: logrus.WithField("module", "importer")}
}

// ImportFile 读取清单并导入, 清单本身无效时返回错误
func (im *Importer) ImportFile(ctx context.Context, manifestPath string) (*Result, error) {
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	return im.Import(ctx, m, filepath.Dir(manifestPath)), nil
}

// Import 逐条上传, 单条失败记录后继续
func (im *Importer) Import(ctx context.Context, m *Manifest, baseDir string) *Result {
	log := logx.LoggerWith(ctx, im.log)
	res := &Result{Imported: []Imported{}, Failed: []Failure{}}

	for _, e := range m.Fonts {
		v, err := im.one(ctx, e, baseDir)
		if err != nil {
			log.WithField("file", e.File).Warnf("import failed: %v", err)
			res.Failed = append(res.Failed, Failure{
				File:  e.File,
				Kind:  fonterr.KindOf(err),
				Error: fonterr.Message(err),
			})
			continue
		}
		res.Imported = append(res.Imported, v)
	}
	log.Infof("imported %d fonts, %d failed", len(res.Imported), len(res.Failed))
	return res
}

func (im *Importer) one(ctx context.Context, e Entry, baseDir string) (Imported, error) {
	path := e.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Imported{}, fonterr.Wrap(err, fonterr.EmptyFile, "Unable to read %s", e.File)
	}

	// ttf/otf 缺失的字段由字体自身的名称表补齐
	if e.Family == "" || e.Weight == "" || e.Style == "" {
		if info, err := fontinfo.Inspect(data, fontcheck.Extension(path)); err == nil {
			if e.Family == "" {
				e.Family = info.Family
			}
			if e.Weight == "" {
				e.Weight = info.Weight
			}
			if e.Style == "" {
				e.Style = info.Style
			}
		}
	}

	v, err := im.Fonts.Upload(ctx, fonts.UploadInput{
		Family:   e.Family,
		Weight:   e.Weight,
		Style:    e.Style,
		Filename: filepath.Base(path),
		File:     bytes.NewReader(data),
		Size:     int64(len(data)),
	})
	if err != nil {
		return Imported{}, err
	}
	return Imported{File: e.File, ID: v.ID, Path: v.FilePath}, nil
}
