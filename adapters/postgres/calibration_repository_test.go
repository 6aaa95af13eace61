package postgres

import (
	"reflect"
	"strings"
	"testing"

	"priorfit/models"
)

// Every persisted field of CalibrationRecord must be selected, or sqlx scans
// would silently leave it zero.
func TestCalibrationColumnsCoverRecord(t *testing.T) {
	selected := map[string]bool{}
	for _, col := range strings.Split(calibrationColumns, ",") {
		selected[strings.TrimSpace(col)] = true
	}

	typ := reflect.TypeOf(models.CalibrationRecord{})
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		if !selected[tag] {
			t.Errorf("column %q (field %s) is not selected", tag, typ.Field(i).Name)
		}
		delete(selected, tag)
	}
	for col := range selected {
		t.Errorf("selected column %q has no record field", col)
	}
}
