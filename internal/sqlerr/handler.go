package sqlerr

import (
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/deppfellow/bookshelf/internal/errs"
	"github.com/gedex/inflector"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// uniqueKeyPattern matches "<table>_<column>_key" style constraint names.
var uniqueKeyPattern = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// violation describes how one class of constraint error reaches clients.
type violation struct {
	action     string
	override   bool
	fieldError string
}

var violations = map[Code]violation{
	ForeignKeyViolation: {action: "NOT_FOUND"},
	UniqueViolation:     {action: "ALREADY_EXISTS", override: true},
	NotNullViolation:    {action: "REQUIRED", override: true, fieldError: "is required"},
	CheckViolation:      {action: "INVALID", override: true, fieldError: "is invalid"},
	StringTooLong:       {action: "INVALID", override: true, fieldError: "is invalid"},
	NumericOutOfRange:   {action: "INVALID", override: true, fieldError: "is invalid"},
	InvalidText:         {action: "INVALID", override: true, fieldError: "is invalid"},
}

// ErrCode reports the Code of the first *Error in err's chain, or Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	return Other
}

// ConvertPgError classifies a raw PostgreSQL error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// HandleError converts a low-level database error into an *errs.HTTPError.
//
//   - *errs.HTTPError: returned unchanged
//   - *pgconn.PgError: constraint violations become 400s, anything else 500
//   - pgx.ErrNoRows / sql.ErrNoRows: 404
//   - anything else: 500
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromSQLError(ConvertPgError(pgErr))
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}

func fromSQLError(sqlErr *Error) *errs.HTTPError {
	v, ok := violations[sqlErr.Code]
	if !ok {
		return errs.NewInternalServerError()
	}

	// e.g. books + not-null -> BOOK_REQUIRED
	code := "RECORD_" + v.action
	if sqlErr.TableName != "" {
		code = strings.ToUpper(inflector.Singularize(sqlErr.TableName)) + "_" + v.action
	}

	var fieldErrors []errs.FieldError
	if v.fieldError != "" && sqlErr.ColumnName != "" {
		fieldErrors = []errs.FieldError{{
			Field: strings.ToLower(sqlErr.ColumnName),
			Error: v.fieldError,
		}}
	}

	return errs.NewBadRequestError(clientMessage(sqlErr), v.override, &code, fieldErrors)
}

// clientMessage phrases sqlErr for API clients without leaking SQL.
func clientMessage(sqlErr *Error) string {
	entity := entityName(sqlErr.TableName, sqlErr.ColumnName)
	column := humanize(sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return "The referenced " + entity + " does not exist"

	case UniqueViolation:
		identifier := humanize(uniqueColumn(sqlErr.ConstraintName))
		if identifier == "" {
			identifier = "identifier"
		}
		return "A " + entity + " with this " + identifier + " already exists"

	case NotNullViolation:
		if column == "" {
			column = "field"
		}
		return "The " + column + " is required"

	default:
		if column != "" {
			return "The " + column + " value does not meet required conditions"
		}
		return "One or more values do not meet required conditions"
	}
}

// entityName prefers a "<entity>_id" column, then the singular table name.
func entityName(tableName, columnName string) string {
	lower := strings.ToLower(columnName)
	if entity, ok := strings.CutSuffix(lower, "_id"); ok && entity != "" {
		return humanize(entity)
	}

	if tableName != "" {
		return humanize(inflector.Singularize(tableName))
	}

	return "record"
}

// humanize turns snake_case into Title Case: "published_year" -> "Published Year".
func humanize(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// uniqueColumn infers the column from a unique constraint named
// "unique_<table>_<column>" or "<table>_<column>_key".
func uniqueColumn(constraintName string) string {
	if rest, ok := strings.CutPrefix(constraintName, "unique_"); ok {
		if i := strings.LastIndex(rest, "_"); i >= 0 {
			return rest[i+1:]
		}
	}

	if matches := uniqueKeyPattern.FindStringSubmatch(constraintName); len(matches) > 1 {
		return matches[1]
	}

	return ""
}
