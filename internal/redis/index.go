package redis

import (
	"context"
	"errors"
	"strconv"
)

// FieldType enumerates the index field kinds.
type FieldType int

const (
	FieldTag FieldType = iota
	FieldText
	FieldNumeric
	FieldGeo
	FieldVector
)

// VectorAlgo selects the vector index algorithm.
type VectorAlgo string

const (
	AlgoFlat VectorAlgo = "FLAT"
	AlgoHNSW VectorAlgo = "HNSW"
)

// DistanceMetric selects the vector distance function.
type DistanceMetric string

const (
	DistanceCosine DistanceMetric = "COSINE"
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
)

// Field describes one schema field of an index. Only the attributes for
// the field's own type are consulted.
type Field struct {
	Name string
	Type FieldType

	// tag
	Separator     string
	CaseSensitive bool

	// text
	Weight float64

	// numeric
	Sortable bool

	// vector
	Dim            int
	Algorithm      VectorAlgo
	Metric         DistanceMetric
	DataType       string
	M              int
	EFConstruction int
	BlockSize      int
}

// IndexDefinition describes an FT index over hash documents.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []Field
}

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return ErrIndexExists
		}
		return &Error{Op: OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name. With dropDocuments the indexed
// hashes are deleted too (FT.DROPINDEX DD).
func (s *Store) DropIndex(ctx context.Context, name string, dropDocuments bool) error {
	args := []string{name}
	if dropDocuments {
		args = append(args, "DD")
	}
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return ErrIndexNotFound
		}
		return &Error{Op: OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name"
// means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &Error{Op: OpIndexInfo, Err: err}
	}
	return true, nil
}

// Info returns the scalar attributes of FT.INFO as a flat map.
func (s *Store) Info(ctx context.Context, name string) (map[string]string, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return nil, ErrIndexNotFound
		}
		return nil, &Error{Op: OpIndexInfo, Err: err}
	}

	info := make(map[string]string, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		// вложенные атрибуты (definition, поля) пропускаем
		value, ok := scalarToString(raw[i+1])
		if !ok {
			continue
		}
		info[key] = value
	}
	return info, nil
}

// ListIndexes returns the names of all FT indexes.
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	cmd := s.b().Arbitrary("FT._LIST").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &Error{Op: OpListIndexes, Err: err}
	}

	names := make([]string, 0, len(raw))
	for _, m := range raw {
		name, err := m.ToString()
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func buildCreateArgs(def *IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(def.Fields) == 0 {
		return nil, errors.New("at least one field is required")
	}

	args := []string{def.Name, "ON", "HASH"}

	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
		args = append(args, def.Prefixes...)
	}

	args = append(args, "SCHEMA")

	for i := range def.Fields {
		fieldArgs, err := buildFieldArgs(&def.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}

	return args, nil
}

func buildFieldArgs(f *Field) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}

	args := []string{f.Name}

	switch f.Type {
	case FieldTag:
		args = append(args, "TAG")
		if f.Separator != "" {
			args = append(args, "SEPARATOR", f.Separator)
		}
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}

	case FieldText:
		args = append(args, "TEXT")
		if f.Weight > 0 && f.Weight != 1 {
			args = append(args, "WEIGHT", strconv.FormatFloat(f.Weight, 'g', -1, 64))
		}

	case FieldNumeric:
		args = append(args, "NUMERIC")
		if f.Sortable {
			args = append(args, "SORTABLE")
		}

	case FieldGeo:
		args = append(args, "GEO")

	case FieldVector:
		vectorArgs, err := buildVectorFieldArgs(f)
		if err != nil {
			return nil, err
		}
		args = append(args, vectorArgs...)

	default:
		return nil, errors.New("unknown field type")
	}

	return args, nil
}

func buildVectorFieldArgs(f *Field) ([]string, error) {
	if f.Dim <= 0 {
		return nil, errors.New("vector DIM must be positive")
	}

	algo := f.Algorithm
	if algo == "" {
		algo = AlgoFlat
	}

	metric := f.Metric
	if metric == "" {
		metric = DistanceCosine
	}

	dataType := f.DataType
	if dataType == "" {
		dataType = "FLOAT32"
	}

	attrs := []string{
		"TYPE", dataType,
		"DIM", strconv.Itoa(f.Dim),
		"DISTANCE_METRIC", string(metric),
	}

	switch algo {
	case AlgoHNSW:
		if f.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.M))
		}
		if f.EFConstruction > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.EFConstruction))
		}
	case AlgoFlat:
		if f.BlockSize > 0 {
			attrs = append(attrs, "BLOCK_SIZE", strconv.Itoa(f.BlockSize))
		}
	}

	result := make([]string, 0, 3+len(attrs))
	result = append(result, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
	result = append(result, attrs...)

	return result, nil
}
