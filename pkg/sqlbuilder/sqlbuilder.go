package sqlbuilder

import "github.com/Masterminds/squirrel"

// Builder squirrel statement builder bound to a placeholder format
type Builder struct {
	sb squirrel.StatementBuilderType
}

// New returns a builder for the given placeholder format
func New(format squirrel.PlaceholderFormat) Builder {
	return Builder{sb: squirrel.StatementBuilder.PlaceholderFormat(format)}
}

// Postgres builder with $1, $2 placeholders
func Postgres() Builder {
	return New(squirrel.Dollar)
}

// SQLite builder with ? placeholders
func SQLite() Builder {
	return New(squirrel.Question)
}

func (b Builder) Select(columns ...string) squirrel.SelectBuilder {
	return b.sb.Select(columns...)
}

func (b Builder) Insert(table string) squirrel.InsertBuilder {
	return b.sb.Insert(table)
}

func (b Builder) Update(table string) squirrel.UpdateBuilder {
	return b.sb.Update(table)
}

func (b Builder) Delete(table string) squirrel.DeleteBuilder {
	return b.sb.Delete(table)
}
