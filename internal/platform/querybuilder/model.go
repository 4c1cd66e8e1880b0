package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds a single-row INSERT from the model's db-tagged fields.
// The suffix is appended verbatim; ON CONFLICT clauses go there. Fields
// without a db tag, or tagged "-", are skipped, and anonymous embedded
// structs are flattened the way sqlx scans them.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	if strings.TrimSpace(table) == "" {
		return "", nil, fmt.Errorf("querybuilder: insert without table")
	}

	columns, values, err := modelColumns(model)
	if err != nil {
		return "", nil, err
	}

	var w sqlWriter
	w.str("INSERT INTO ")
	w.str(table)
	w.str(" (")
	w.str(strings.Join(columns, ", "))
	w.str(") VALUES (")
	for i, value := range values {
		if i > 0 {
			w.str(", ")
		}
		w.bind(value)
	}
	w.str(")")

	if suffix = strings.TrimSpace(suffix); suffix != "" {
		w.str(" ")
		w.str(suffix)
	}

	return w.buf.String(), w.args, nil
}

func modelColumns(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("querybuilder: insert model is nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("querybuilder: insert model must be a struct, got %s", value.Kind())
	}

	var columns []string
	var values []any
	collectColumns(value, &columns, &values)
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("querybuilder: insert model has no db-tagged fields")
	}

	return columns, values, nil
}

func collectColumns(value reflect.Value, columns *[]string, values *[]any) {
	typ := value.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		if field.Anonymous && field.Type.Kind() == reflect.Struct && field.Tag.Get("db") == "" {
			collectColumns(value.Field(i), columns, values)
			continue
		}

		tag := strings.TrimSpace(field.Tag.Get("db"))
		if tag == "" || tag == "-" {
			continue
		}
		column := strings.TrimSpace(strings.Split(tag, ",")[0])
		if column == "" || column == "-" {
			continue
		}

		*columns = append(*columns, column)
		*values = append(*values, value.Field(i).Interface())
	}
}
