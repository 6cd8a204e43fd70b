package redisvl

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tuhinmallick/redisvl/internal/redis"
)

// Schema describes a search index: its name, key prefix and typed
// fields. Schemas are written literally or parsed from YAML:
//
//	index:
//	  name: user_index
//	  prefix: users
//	fields:
//	  tag:
//	    - name: credit_score
//	  numeric:
//	    - name: age
//	  vector:
//	    - name: user_embedding
//	      dims: 3
//	      algorithm: flat
//	      distance_metric: cosine
type Schema struct {
	Index  IndexSettings `yaml:"index"`
	Fields FieldSet      `yaml:"fields"`
}

// IndexSettings holds the index-level attributes.
type IndexSettings struct {
	Name        string `yaml:"name"`
	Prefix      string `yaml:"prefix"`
	StorageType string `yaml:"storage_type"` // only "hash" is supported
}

// FieldSet groups schema fields by type.
type FieldSet struct {
	Tag     []TagFieldSchema     `yaml:"tag"`
	Text    []TextFieldSchema    `yaml:"text"`
	Numeric []NumericFieldSchema `yaml:"numeric"`
	Geo     []GeoFieldSchema     `yaml:"geo"`
	Vector  []VectorFieldSchema  `yaml:"vector"`
}

// TagFieldSchema declares a TAG field.
type TagFieldSchema struct {
	Name          string `yaml:"name"`
	Separator     string `yaml:"separator"`
	CaseSensitive bool   `yaml:"case_sensitive"`
}

// TextFieldSchema declares a TEXT field.
type TextFieldSchema struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// NumericFieldSchema declares a NUMERIC field.
type NumericFieldSchema struct {
	Name     string `yaml:"name"`
	Sortable bool   `yaml:"sortable"`
}

// GeoFieldSchema declares a GEO field.
type GeoFieldSchema struct {
	Name string `yaml:"name"`
}

// VectorFieldSchema declares a VECTOR field.
type VectorFieldSchema struct {
	Name           string `yaml:"name"`
	Dims           int    `yaml:"dims"`
	Algorithm      string `yaml:"algorithm"`       // flat (default) or hnsw
	DistanceMetric string `yaml:"distance_metric"` // cosine (default), l2, ip
	DataType       string `yaml:"datatype"`        // float32 (default)
	M              int    `yaml:"m"`
	EFConstruction int    `yaml:"ef_construction"`
	BlockSize      int    `yaml:"block_size"`
}

// ParseSchema parses a YAML schema document.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSchema reads and parses a YAML schema file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return ParseSchema(data)
}

// Validate checks the schema for correctness.
func (s *Schema) Validate() error {
	if s.Index.Name == "" {
		return fmt.Errorf("schema: index.name is required")
	}
	if s.Index.Prefix == "" {
		return fmt.Errorf("schema: index.prefix is required")
	}
	if s.Index.StorageType != "" && s.Index.StorageType != "hash" {
		return fmt.Errorf("schema: unsupported storage_type %q (only hash)", s.Index.StorageType)
	}
	total := len(s.Fields.Tag) + len(s.Fields.Text) + len(s.Fields.Numeric) +
		len(s.Fields.Geo) + len(s.Fields.Vector)
	if total == 0 {
		return fmt.Errorf("schema: at least one field is required")
	}

	for _, f := range s.Fields.Vector {
		if f.Name == "" {
			return fmt.Errorf("schema: vector field name is required")
		}
		if f.Dims <= 0 {
			return fmt.Errorf("schema: vector field %s: dims must be positive, got %d", f.Name, f.Dims)
		}
		switch f.Algorithm {
		case "", "flat", "hnsw":
		default:
			return fmt.Errorf("schema: vector field %s: unknown algorithm %q", f.Name, f.Algorithm)
		}
		switch f.DistanceMetric {
		case "", "cosine", "l2", "ip":
		default:
			return fmt.Errorf("schema: vector field %s: unknown distance_metric %q", f.Name, f.DistanceMetric)
		}
	}

	for _, name := range s.scalarFieldNames() {
		if name == "" {
			return fmt.Errorf("schema: field name is required")
		}
	}
	return nil
}

func (s *Schema) scalarFieldNames() []string {
	var names []string
	for _, f := range s.Fields.Tag {
		names = append(names, f.Name)
	}
	for _, f := range s.Fields.Text {
		names = append(names, f.Name)
	}
	for _, f := range s.Fields.Numeric {
		names = append(names, f.Name)
	}
	for _, f := range s.Fields.Geo {
		names = append(names, f.Name)
	}
	return names
}

// definition converts the schema into the store-level index definition.
func (s *Schema) definition() *redis.IndexDefinition {
	def := &redis.IndexDefinition{
		Name:     s.Index.Name,
		Prefixes: []string{s.Index.Prefix},
	}

	for _, f := range s.Fields.Tag {
		def.Fields = append(def.Fields, redis.Field{
			Name: f.Name, Type: redis.FieldTag,
			Separator: f.Separator, CaseSensitive: f.CaseSensitive,
		})
	}
	for _, f := range s.Fields.Text {
		def.Fields = append(def.Fields, redis.Field{
			Name: f.Name, Type: redis.FieldText, Weight: f.Weight,
		})
	}
	for _, f := range s.Fields.Numeric {
		def.Fields = append(def.Fields, redis.Field{
			Name: f.Name, Type: redis.FieldNumeric, Sortable: f.Sortable,
		})
	}
	for _, f := range s.Fields.Geo {
		def.Fields = append(def.Fields, redis.Field{Name: f.Name, Type: redis.FieldGeo})
	}
	for _, f := range s.Fields.Vector {
		algo := redis.AlgoFlat
		if f.Algorithm == "hnsw" {
			algo = redis.AlgoHNSW
		}
		metric := redis.DistanceCosine
		switch f.DistanceMetric {
		case "l2":
			metric = redis.DistanceL2
		case "ip":
			metric = redis.DistanceIP
		}
		def.Fields = append(def.Fields, redis.Field{
			Name: f.Name, Type: redis.FieldVector,
			Dim: f.Dims, Algorithm: algo, Metric: metric,
			DataType: f.DataType, M: f.M,
			EFConstruction: f.EFConstruction, BlockSize: f.BlockSize,
		})
	}
	return def
}
