package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strings"

	restnest "github.com/harvard-lil/restnest"
	"gorm.io/gorm"
)

// safeGORMSession forces *gorm.DB methods onto a clean pointer.
// Some *gorm.DB methods mutate shared state otherwise.
var safeGORMSession = &gorm.Session{}

// DB wraps a *gorm.DB in a chainable query surface
// that translates gorm and PostgreSQL errors into restnest sentinels.
//
// Chainer methods build up a query; finisher methods execute it.
type DB struct {
	db *gorm.DB
}

// NewDB constructs a *DB from a *gorm.DB.
func NewDB(db *gorm.DB) *DB { return &DB{db: db} }

// DB exposes the underlying *gorm.DB backing DB.
//
// NB: use in exceptional circumstances only.
func (db *DB) DB() *gorm.DB { return db.db }

// Debug prints the current query to the logger.
func (db *DB) Debug() *DB { return &DB{db.db.Debug()} }

// WithContext scopes the current query to ctx.
func (db *DB) WithContext(ctx context.Context) *DB { return &DB{db: db.db.WithContext(ctx)} }

// **************************************************************************
// FINISHER METHODS
//
// These methods close out a current query, executing it.
// They return any errors occurring within the query chain
// or when executing the query.
// **************************************************************************

// Count returns the number of records matching the current query or an error.
func (db *DB) Count() (int64, error) {
	if db.db.Error != nil {
		return 0, db.db.Error
	}

	var count int64
	if err := db.db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: %s", restnest.ErrUnexpected, err)
	}

	return count, nil
}

// Create inserts value into the database, updating value with new data yielding from that insertion.
// Value is almost always a pointer to a struct that is a database table.
//
// Value must be a pointer, otherwise ErrNotValid returns.
// If value violates a unique constraint defined by the database, ErrNotValid returns.
func (db *DB) Create(value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %T must be a non-nil pointer or slice", restnest.ErrNotValid, value)
		}
	}()

	if db.db.Error != nil {
		return db.db.Error
	}

	err = db.db.Session(&gorm.Session{FullSaveAssociations: false}).Create(value).Error
	switch {
	case err == nil:
		return nil

	case errConstraintViolation.MatchString(err.Error()), errUniqViolation.MatchString(err.Error()):
		return fmt.Errorf("%w: %s", restnest.ErrNotValid, err)

	default:
		return fmt.Errorf("%w: %s", restnest.ErrUnexpected, err)
	}
}

// Delete removes the records matching the current query from the table value belongs to.
// Delete reports the number of rows removed.
func (db *DB) Delete(value any) (int64, error) {
	if db.db.Error != nil {
		return 0, db.db.Error
	}

	res := db.db.Delete(value)
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %s", restnest.ErrUnexpected, res.Error)
	}

	return res.RowsAffected, nil
}

// Exec runs sql against the database, passing values to it.
func (db *DB) Exec(sql string, values ...any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	if err := db.db.Exec(sql, values...).Error; err != nil {
		if errSQLSyntax.MatchString(err.Error()) {
			return fmt.Errorf("%w: %s", restnest.ErrNotValid, err)
		}

		return fmt.Errorf("%w: %s", restnest.ErrUnexpected, err)
	}

	return nil
}

// Exists asserts whether any record matches the current query.
func (db *DB) Exists() (bool, error) {
	count, err := db.Count()
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Find retrieves all records matching the current query
// and stores them in dest.
//
// If dest is not a valid type for the table queried,
// then ErrNotValid returns.
// Unlike First, zero matches is not an error; dest is left empty.
func (db *DB) Find(dest any) (err error) {
	badDest := fmt.Errorf("%w: %T cannot be scanned into", restnest.ErrNotValid, dest)
	defer func() {
		if r := recover(); r != nil {
			err = badDest
		}
	}()

	if db.db.Error != nil {
		return db.db.Error
	}

	err = db.db.Find(dest).Error
	if err != nil && errSQLScan.MatchString(err.Error()) {
		return badDest
	}

	if err != nil && errSQLSyntax.MatchString(err.Error()) {
		return fmt.Errorf("%w: %s", restnest.ErrNotValid, err)
	}

	if err != nil {
		return fmt.Errorf("%w: %s", restnest.ErrUnexpected, err)
	}

	return nil
}

// First retrieves a single record from the database matching the query
// and stores it in dest.
//
// If no matches are found, First returns ErrNotFound.
func (db *DB) First(dest any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	err := db.db.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w", restnest.ErrNotFound)
	}

	if err != nil && errSQLSyntax.MatchString(err.Error()) {
		return fmt.Errorf("%w: %s", restnest.ErrNotValid, err)
	}

	if err != nil {
		return fmt.Errorf("%w: %s", restnest.ErrUnexpected, err)
	}

	return nil
}

// Paged turns the results of the current query into a paginated version: PagedData.
// Paged requires Model to have set the type queried data is coerced into.
func (db *DB) Paged(page, perPage int64) (pd PagedData, err error) {
	defer func() {
		// NOTE: this method uses reflect and so can panic.
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: Paged panicked: %s", restnest.ErrUnexpected, r)
			pd = PagedData{}
		}
	}()

	if db.db.Error != nil {
		return PagedData{}, db.db.Error
	}

	model := db.db.Statement.Model
	if model == nil {
		return PagedData{}, fmt.Errorf("%w: must use Model with Paged", restnest.ErrNotValid)
	}

	reflectType := reflect.TypeOf(model).Elem()
	if reflectType.Kind() != reflect.Slice {
		model = reflect.New(reflect.SliceOf(reflectType)).Interface()
	}

	pd.Items = model
	pd.Page = maxInt64(1, page)
	pd.PerPage = maxInt64(1, perPage)

	var totalRecords int64
	err = db.db.Session(safeGORMSession).Count(&totalRecords).Error
	if err != nil {
		return PagedData{}, fmt.Errorf("%w: %s", restnest.ErrUnexpected, err)
	}

	offset := int((pd.Page - 1) * pd.PerPage)
	err = db.db.Limit(int(pd.PerPage)).Offset(offset).Find(pd.Items).Error
	if err != nil {
		return PagedData{}, fmt.Errorf("%w: %s", restnest.ErrUnexpected, err)
	}

	// NOTE: use math/big for accurate float64 division.
	totalPages := new(big.Float).SetInt(big.NewInt(totalRecords))
	perPageFl := new(big.Float).SetInt(big.NewInt(pd.PerPage))

	zero := big.NewFloat(0)
	if totalPages.Cmp(zero) != 0 && perPageFl.Cmp(zero) != 0 {
		totalPages.Quo(totalPages, perPageFl)
	}

	var acc big.Accuracy
	pd.TotalPages, acc = totalPages.Int64()
	if acc == big.Below {
		pd.TotalPages += 1
	}

	pd.TotalItems = totalRecords

	return pd, nil
}

// Save writes value back to its table, inserting it if its primary key is unset.
func (db *DB) Save(value any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	if err := db.db.Save(value).Error; err != nil {
		if errConstraintViolation.MatchString(err.Error()) || errUniqViolation.MatchString(err.Error()) {
			return fmt.Errorf("%w: %s", restnest.ErrNotValid, err)
		}

		return fmt.Errorf("%w: %s", restnest.ErrUnexpected, err)
	}

	return nil
}

// **************************************************************************
// CHAINER METHODS
//
// These methods build up the current query.
// **************************************************************************

// FilterMap adds one equality clause per key-value pair in filters.
// Slice values become IN clauses.
//
// Keys are column names; they are validated against identRegexp
// so lookup values captured from URLs cannot smuggle SQL into the query.
func (db *DB) FilterMap(filters map[string]any) *DB {
	gdb := db.db
	for col, val := range filters {
		if !identRegexp.MatchString(col) {
			gdb = gdb.Session(safeGORMSession)
			_ = gdb.AddError(fmt.Errorf("%w: bad filter column %q", restnest.ErrNotValid, col))
			return &DB{db: gdb}
		}

		if val != nil && reflect.TypeOf(val).Kind() == reflect.Slice {
			gdb = gdb.Where(fmt.Sprintf("%s IN ?", col), val)
			continue
		}

		gdb = gdb.Where(fmt.Sprintf("%s = ?", col), val)
	}

	return &DB{db: gdb}
}

// Limit restricts the current query to returning limit records.
func (db *DB) Limit(limit int) *DB { return &DB{db: db.db.Limit(limit)} }

// Model sets the table for the current query from the type of model.
func (db *DB) Model(model any) *DB { return &DB{db: db.db.Model(model)} }

// Offset skips the first offset records in the current query.
func (db *DB) Offset(offset int) *DB { return &DB{db: db.db.Offset(offset)} }

// Order sorts the records in the current query.
func (db *DB) Order(order string) *DB { return &DB{db: db.db.Order(order)} }

// Preload eager loads the named association on records returned by the current query.
func (db *DB) Preload(association string) *DB { return &DB{db: db.db.Preload(association)} }

// Where adds a condition to the current query.
func (db *DB) Where(query any, args ...any) *DB {
	return &DB{db: db.db.Where(query, args...)}
}

// identRegexp constrains filter keys to SQL identifiers, optionally qualified.
var identRegexp = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Columns derives the column name gorm would use for each exported field of model.
// Used by callers validating filterable columns.
func Columns(model any) []string {
	t := reflect.TypeOf(model)
	if t == nil {
		return nil
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous {
			continue
		}

		if tag, ok := f.Tag.Lookup("db"); ok {
			cols = append(cols, tag)
			continue
		}

		cols = append(cols, toSnake(f.Name))
	}

	return cols
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}

	return b.String()
}
