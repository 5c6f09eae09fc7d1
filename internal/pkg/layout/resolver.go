package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// ConfigError 布局配置文件无法读取或解析
// 只在 Resolver 内部记录日志，不会返回给调用方
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("layout config %q: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Resolver 模式名 -> 布局配置
// 配置文件在首次使用时读取一次并缓存，可被多个请求并发使用
type Resolver struct {
	path string

	once     sync.Once
	table    map[string]Override
	fromFile bool
}

// NewResolver 创建基于 JSON 文件的解析器，path 为空时直接使用内置模式表
func NewResolver(path string) *Resolver {
	return &Resolver{path: path}
}

// NewResolverFromTable 使用给定模式表创建解析器
func NewResolverFromTable(table map[string]Override) *Resolver {
	r := &Resolver{table: table, fromFile: true}
	r.once.Do(func() {})
	return r
}

// Load 读取配置文件（只执行一次）
func (r *Resolver) Load() {
	r.once.Do(func() {
		table, err := loadTable(r.path)
		if err != nil {
			log.Warn().Err(err).Str("path", r.path).Msg("布局配置不可用，使用内置默认配置")
			r.table = DefaultTable()
			return
		}
		r.table = table
		r.fromFile = true
		log.Info().Str("path", r.path).Int("modes", len(table)).Msg("布局配置加载成功")
	})
}

// Resolve 解析模式，模式不存在时回退到 FallbackMode，不返回错误
// 返回值总是完整填充的
func (r *Resolver) Resolve(mode string) LayoutConfig {
	r.Load()

	if o, ok := r.table[mode]; ok {
		return Merge(DefaultLayout(), o)
	}

	log.Debug().Str("mode", mode).Str("fallback", FallbackMode).Msg("未知数字人模式，使用回退模式")
	if o, ok := r.table[FallbackMode]; ok {
		return Merge(DefaultLayout(), o)
	}
	return Merge(DefaultLayout(), DefaultTable()[FallbackMode])
}

// ValidateMode 模式名是否原样存在于模式表中（回退不算）
func (r *Resolver) ValidateMode(mode string) bool {
	r.Load()
	_, ok := r.table[mode]
	return ok
}

// Modes 返回所有模式名（已排序）
func (r *Resolver) Modes() []string {
	r.Load()
	modes := make([]string, 0, len(r.table))
	for m := range r.table {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}

// FromFile 模式表是否来自配置文件
func (r *Resolver) FromFile() bool {
	r.Load()
	return r.fromFile
}

// loadTable 读取 JSON 模式表
// viper 会把 key 转为小写，因此顶层模式名按原样从 JSON 中取出，每个模式项再交给 viper 解码
func loadTable(path string) (map[string]Override, error) {
	if path == "" {
		return nil, &ConfigError{Path: path, Err: errors.New("no layout file configured")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	table := make(map[string]Override, len(entries))
	for mode, raw := range entries {
		o, err := decodeOverride(raw)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("mode %q: %w", mode, err)}
		}
		table[mode] = o
	}
	return table, nil
}

// decodeOverride 解码单个模式项，空对象得到空覆盖（即基线）
func decodeOverride(raw json.RawMessage) (Override, error) {
	var o Override
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return o, errors.New("not an object")
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(trimmed)); err != nil {
		return o, err
	}
	if err := v.Unmarshal(&o); err != nil {
		return o, err
	}
	return o, nil
}
