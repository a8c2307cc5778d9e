package store

import (
	"database/sql/driver"
	"fmt"
	"strings"

	sqlite "modernc.org/sqlite"
)

// foldFunc is the SQL name of the Unicode-aware lower-case function. The
// built-in lower() and LIKE only fold ASCII letters, while commands arrive
// lower-cased by strings.ToLower, so every case-insensitive comparison in
// this package goes through foldFunc on both sides.
const foldFunc = "boothbot_fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, foldValue)
}

func foldValue(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s expects 1 argument", foldFunc)
	}
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		// NULL and numbers have no case.
		return v, nil
	}
}
