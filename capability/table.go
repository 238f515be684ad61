package capability

import (
	"fmt"
	"os"

	"github.com/BaSui01/evalflow/types"
	"gopkg.in/yaml.v3"
)

// Entry 描述一条能力记录：某提供商下匹配 ModelPattern 的模型家族
// 支持哪些模态、哪些选项，以及哪些模态需要先上传再按 URL 引用。
// 表为只读数据，进程启动时加载，运行期不变。
type Entry struct {
	Provider         string   `yaml:"provider"`
	ModelPattern     string   `yaml:"model_pattern"`
	Modalities       []string `yaml:"modalities"`
	Options          []string `yaml:"options,omitempty"`
	UploadModalities []string `yaml:"upload_modalities,omitempty"`
}

// Table 是带版本号的能力表。模型家族更新频繁，表以数据形式外置，
// 更新无需改代码。
type Table struct {
	Version int     `yaml:"version"`
	Entries []Entry `yaml:"capabilities"`
}

// OptionImageDetail 是图像 detail 选项在能力表中的名称。
const OptionImageDetail = "image_detail"

// DefaultTable 返回编译内置的默认能力表。外部 YAML 表（LoadTable）
// 在部署时覆盖它。
func DefaultTable() *Table {
	return &Table{
		Version: 1,
		Entries: []Entry{
			{
				Provider:     "openai",
				ModelPattern: "gpt-4o-audio*",
				Modalities:   []string{"image", "audio"},
				Options:      []string{OptionImageDetail},
			},
			{
				Provider:     "openai",
				ModelPattern: "gpt-4o*",
				Modalities:   []string{"image"},
				Options:      []string{OptionImageDetail},
			},
			{
				Provider:     "openai",
				ModelPattern: "gpt-4*",
				Modalities:   []string{"image"},
				Options:      []string{OptionImageDetail},
			},
			{
				Provider:     "openai",
				ModelPattern: "o*",
				Modalities:   []string{"image"},
			},
			{
				Provider:     "anthropic",
				ModelPattern: "claude-*",
				Modalities:   []string{"image"},
			},
			{
				Provider:         "gemini",
				ModelPattern:     "gemini-*",
				Modalities:       []string{"image", "audio", "video"},
				UploadModalities: []string{"audio", "video"},
			},
		},
	}
}

// LoadTable 从 YAML 文件加载能力表并做结构校验。
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capability table: %w", err)
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse capability table: %w", err)
	}
	if err := table.validate(); err != nil {
		return nil, fmt.Errorf("invalid capability table %s: %w", path, err)
	}
	return &table, nil
}

func (t *Table) validate() error {
	if t.Version < 1 {
		return fmt.Errorf("missing or invalid version: %d", t.Version)
	}
	if len(t.Entries) == 0 {
		return fmt.Errorf("capability table has no entries")
	}
	for i, e := range t.Entries {
		if e.Provider == "" {
			return fmt.Errorf("entry %d: provider is required", i)
		}
		if e.ModelPattern == "" {
			return fmt.Errorf("entry %d: model_pattern is required", i)
		}
		for _, m := range e.Modalities {
			if !validModality(m) {
				return fmt.Errorf("entry %d: unknown modality %q", i, m)
			}
		}
		for _, m := range e.UploadModalities {
			if !validModality(m) {
				return fmt.Errorf("entry %d: unknown upload modality %q", i, m)
			}
		}
	}
	return nil
}

func validModality(m string) bool {
	switch types.MediaKind(m) {
	case types.MediaImage, types.MediaAudio, types.MediaVideo:
		return true
	}
	return false
}
