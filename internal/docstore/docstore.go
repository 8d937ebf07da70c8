// Package docstore is a document database: typed tables persisted as
// worksheets of a single Excel workbook.
//
// A workbook beats a real database here because the schema changes all the
// time during development. Renaming a column is editing a header cell, and
// the data stays browsable with any spreadsheet program. Each table keeps
// its rows in memory as an ordered key-to-record map and flushes to disk
// only when dirty.
//
// Worksheet layout: row 0 is the header, an empty cell followed by the field
// names; every following row is a record, its key in column 0 and field
// values after it. Loading stops at the first empty key.
package docstore

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"math"
	"os"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/satgo1546/pykinezumiko/internal/xlsx"
)

// ErrRecord reports a record type or loaded row that cannot be mapped onto
// the declared schema.
var ErrRecord = errors.New("record does not fit the table schema")

// Base carries the bookkeeping timestamps every record embeds. The fields
// live in memory only; they are reset on load and never written out, so that
// editing the workbook by hand cannot corrupt them.
type Base struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *Base) base() *Base { return b }

type timestamped interface{ base() *Base }

// AnyTable is the type-erased view of a Table, as consumed by Database.
// Only tables created in this package satisfy it.
type AnyTable interface {
	name() string
	clear()
	load(sheet xlsx.Sheet) error
	sheetData() (xlsx.SheetData, error)
	isDirty() bool
	clearDirty()
	setMutex(mu *sync.Mutex)
}

// Table is an ordered map from keys to records of type T. T must be a struct
// embedding Base; its remaining exported fields become the worksheet columns.
//
// Keys may be nil, bools, numbers, strings, byte strings or times; they sort
// by type first, then by value. Integral numeric keys normalise to int64 so
// that a key survives the float trip through the workbook.
type Table[T any] struct {
	tableName string
	fields    []reflect.StructField
	keys      []any
	rows      map[any]*T
	dirty     bool
	mu        *sync.Mutex
}

// NewTable declares a table stored in the worksheet called name.
// It panics if T is not a struct embedding Base.
func NewTable[T any](name string) *Table[T] {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		panic(fmt.Sprintf("docstore: record type %s is not a struct", typ))
	}
	if _, ok := any((*T)(nil)).(timestamped); !ok {
		panic(fmt.Sprintf("docstore: record type %s does not embed docstore.Base", typ))
	}
	var fields []reflect.StructField
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.Anonymous && f.Type == reflect.TypeOf(Base{}) {
			continue
		}
		if !f.IsExported() {
			continue
		}
		fields = append(fields, f)
	}
	return &Table[T]{
		tableName: name,
		fields:    fields,
		rows:      make(map[any]*T),
	}
}

func (t *Table[T]) lock() func() {
	if t.mu == nil {
		return func() {}
	}
	t.mu.Lock()
	return t.mu.Unlock
}

// Get returns the record stored under key.
func (t *Table[T]) Get(key any) (*T, bool) {
	defer t.lock()()
	row, ok := t.rows[canonicalKey(key)]
	return row, ok
}

// Put inserts or replaces the record under key and stamps it.
func (t *Table[T]) Put(key any, row *T) {
	defer t.lock()()
	now := time.Now()
	b := any(row).(timestamped).base()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	t.put(canonicalKey(key), row)
	t.dirty = true
}

func (t *Table[T]) put(key any, row *T) {
	if _, ok := t.rows[key]; !ok {
		i := sort.Search(len(t.keys), func(i int) bool {
			return !keyLess(t.keys[i], key)
		})
		t.keys = append(t.keys, nil)
		copy(t.keys[i+1:], t.keys[i:])
		t.keys[i] = key
	}
	t.rows[key] = row
}

// Delete removes the record under key and reports whether it existed.
func (t *Table[T]) Delete(key any) bool {
	defer t.lock()()
	key = canonicalKey(key)
	if _, ok := t.rows[key]; !ok {
		return false
	}
	delete(t.rows, key)
	i := sort.Search(len(t.keys), func(i int) bool {
		return !keyLess(t.keys[i], key)
	})
	for ; i < len(t.keys); i++ {
		if t.keys[i] == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	t.dirty = true
	return true
}

// Update applies fn to the record under key, bumps UpdatedAt and marks the
// table dirty. It reports whether the record existed.
func (t *Table[T]) Update(key any, fn func(*T)) bool {
	defer t.lock()()
	row, ok := t.rows[canonicalKey(key)]
	if !ok {
		return false
	}
	fn(row)
	any(row).(timestamped).base().UpdatedAt = time.Now()
	t.dirty = true
	return true
}

// Len returns the number of records.
func (t *Table[T]) Len() int {
	defer t.lock()()
	return len(t.keys)
}

// All iterates the records in key order.
func (t *Table[T]) All() iter.Seq2[any, *T] {
	return func(yield func(any, *T) bool) {
		defer t.lock()()
		for _, key := range t.keys {
			if !yield(key, t.rows[key]) {
				return
			}
		}
	}
}

func (t *Table[T]) name() string { return t.tableName }

func (t *Table[T]) clear() {
	t.keys = nil
	t.rows = make(map[any]*T)
}

func (t *Table[T]) isDirty() bool { return t.dirty }

func (t *Table[T]) clearDirty() { t.dirty = false }

func (t *Table[T]) setMutex(mu *sync.Mutex) { t.mu = mu }

// load replaces the table contents with the worksheet rows. Cell values are
// coerced through the declared field types; a value that cannot be coerced
// fails the whole load.
func (t *Table[T]) load(sheet xlsx.Sheet) error {
	t.clear()
	var header []string
	for j := 1; ; j++ {
		name, _ := sheet[xlsx.Ref{Row: 0, Col: j}].(string)
		if name == "" {
			break
		}
		header = append(header, name)
	}
	byName := make(map[string]reflect.StructField, len(t.fields))
	for _, f := range t.fields {
		byName[f.Name] = f
	}
	now := time.Now()
	for i := 1; ; i++ {
		key := sheet[xlsx.Ref{Row: i, Col: 0}]
		if key == nil || key == "" {
			break
		}
		row := new(T)
		rv := reflect.ValueOf(row).Elem()
		for j, name := range header {
			f, ok := byName[name]
			if !ok {
				continue
			}
			cell := sheet[xlsx.Ref{Row: i, Col: j + 1}]
			if err := coerce(rv.FieldByIndex(f.Index), cell); err != nil {
				return fmt.Errorf("table %s row %d field %s: %w", t.tableName, i, name, err)
			}
		}
		b := any(row).(timestamped).base()
		b.CreatedAt = now
		b.UpdatedAt = now
		t.put(canonicalKey(key), row)
	}
	return nil
}

// sheetData renders the table as worksheet cells in write order.
func (t *Table[T]) sheetData() (xlsx.SheetData, error) {
	data := xlsx.SheetData{Name: t.tableName}
	data.Cells = append(data.Cells, xlsx.Cell{Row: 0, Col: 0, Value: ""})
	for j, f := range t.fields {
		data.Cells = append(data.Cells, xlsx.Cell{Row: 0, Col: j + 1, Value: f.Name})
	}
	for i, key := range t.keys {
		data.Cells = append(data.Cells, xlsx.Cell{Row: i + 1, Col: 0, Value: key})
		rv := reflect.ValueOf(t.rows[key]).Elem()
		for j, f := range t.fields {
			v, err := cellValue(rv.FieldByIndex(f.Index))
			if err != nil {
				return xlsx.SheetData{}, fmt.Errorf("table %s field %s: %w", t.tableName, f.Name, err)
			}
			data.Cells = append(data.Cells, xlsx.Cell{Row: i + 1, Col: j + 1, Value: v})
		}
	}
	return data, nil
}

// coerce stores a workbook value into a struct field, converting across the
// numeric, string and boolean representations the float trip produces.
func coerce(field reflect.Value, v xlsx.Value) error {
	if v == nil {
		field.SetZero()
		return nil
	}
	switch field.Interface().(type) {
	case time.Time:
		if x, ok := v.(time.Time); ok {
			field.Set(reflect.ValueOf(x))
			return nil
		}
	case []byte:
		switch x := v.(type) {
		case []byte:
			field.SetBytes(x)
			return nil
		case string:
			field.SetBytes([]byte(x))
			return nil
		}
	default:
		switch field.Kind() {
		case reflect.String:
			switch x := v.(type) {
			case string:
				field.SetString(x)
				return nil
			case int64:
				field.SetString(strconv.FormatInt(x, 10))
				return nil
			case float64:
				field.SetString(strconv.FormatFloat(x, 'g', -1, 64))
				return nil
			}
		case reflect.Bool:
			switch x := v.(type) {
			case bool:
				field.SetBool(x)
				return nil
			case int64:
				field.SetBool(x != 0)
				return nil
			case float64:
				field.SetBool(x != 0)
				return nil
			case string:
				b, err := strconv.ParseBool(x)
				if err == nil {
					field.SetBool(b)
					return nil
				}
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			switch x := v.(type) {
			case int64:
				field.SetInt(x)
				return nil
			case float64:
				if x == math.Trunc(x) {
					field.SetInt(int64(x))
					return nil
				}
			case bool:
				if x {
					field.SetInt(1)
				} else {
					field.SetInt(0)
				}
				return nil
			case string:
				n, err := strconv.ParseInt(x, 10, 64)
				if err == nil {
					field.SetInt(n)
					return nil
				}
			}
		case reflect.Float32, reflect.Float64:
			switch x := v.(type) {
			case float64:
				field.SetFloat(x)
				return nil
			case int64:
				field.SetFloat(float64(x))
				return nil
			case string:
				f, err := strconv.ParseFloat(x, 64)
				if err == nil {
					field.SetFloat(f)
					return nil
				}
			}
		}
	}
	return fmt.Errorf("%w: cannot store %T into %s", ErrRecord, v, field.Type())
}

// cellValue converts a struct field to a workbook value. Zero times write as
// blanks so that an unset deadline does not read back as the epoch.
func cellValue(field reflect.Value) (xlsx.Value, error) {
	switch x := field.Interface().(type) {
	case time.Time:
		if x.IsZero() {
			return nil, nil
		}
		return x, nil
	case []byte:
		return x, nil
	}
	switch field.Kind() {
	case reflect.String:
		return field.String(), nil
	case reflect.Bool:
		return field.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.Int(), nil
	case reflect.Float32, reflect.Float64:
		return field.Float(), nil
	}
	return nil, fmt.Errorf("%w: unsupported field type %s", ErrRecord, field.Type())
}

// canonicalKey folds the numeric representations a key can take so that a
// key inserted as an int is still found after a reload turned it into a
// float. Integral floats become int64.
func canonicalKey(key any) any {
	switch x := key.(type) {
	case int:
		return int64(x)
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int64(x)
		}
	case []byte:
		// Byte-string keys are compared by content.
		return string(x)
	}
	return key
}

func keyRank(key any) int {
	switch key.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case string:
		return 3
	case time.Time:
		return 4
	default:
		return 5
	}
}

func keyLess(a, b any) bool {
	ra, rb := keyRank(a), keyRank(b)
	if ra != rb {
		return ra < rb
	}
	switch x := a.(type) {
	case bool:
		return !x && b.(bool)
	case int64:
		switch y := b.(type) {
		case int64:
			return x < y
		case float64:
			return float64(x) < y
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return x < float64(y)
		case float64:
			return x < y
		}
	case string:
		return x < b.(string)
	case time.Time:
		return x.Before(b.(time.Time))
	}
	return false
}

// Database binds tables to one workbook file.
type Database struct {
	path   string
	tables []AnyTable
	mu     sync.Mutex
}

// Open binds tables to the workbook at path and loads it. A missing file is
// an empty database, not an error.
func Open(path string, tables ...AnyTable) (*Database, error) {
	db := &Database{path: path, tables: tables}
	for _, t := range tables {
		t.setMutex(&db.mu)
	}
	if err := db.Reload(); err != nil {
		return nil, err
	}
	return db, nil
}

// Path returns the workbook file the database persists to.
func (db *Database) Path() string { return db.path }

// Reload replaces all table contents with the workbook on disk and clears
// the dirty flags. In-memory changes are lost.
func (db *Database) Reload() error {
	workbook, err := xlsx.Read(db.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reload %s: %w", db.path, err)
		}
		workbook = map[string]xlsx.Sheet{}
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, t := range db.tables {
		t.clear()
		if sheet, ok := workbook[t.name()]; ok {
			if err := t.load(sheet); err != nil {
				return fmt.Errorf("reload %s: %w", db.path, err)
			}
		}
		t.clearDirty()
	}
	return nil
}

// Save writes all tables to the workbook and clears the dirty flags.
func (db *Database) Save() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	sheets := make([]xlsx.SheetData, 0, len(db.tables))
	for _, t := range db.tables {
		data, err := t.sheetData()
		if err != nil {
			return fmt.Errorf("save %s: %w", db.path, err)
		}
		sheets = append(sheets, data)
	}
	var buf bytes.Buffer
	if err := xlsx.WriteTo(&buf, sheets, nil); err != nil {
		return fmt.Errorf("save %s: %w", db.path, err)
	}
	if err := os.WriteFile(db.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", db.path, err)
	}
	for _, t := range db.tables {
		t.clearDirty()
	}
	return nil
}

// Dirty reports whether any table has unsaved changes.
func (db *Database) Dirty() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, t := range db.tables {
		if t.isDirty() {
			return true
		}
	}
	return false
}
