package gormdb

import (
	"fmt"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/ticketquery"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var sortColumns = map[ticketquery.SortKey]string{
	ticketquery.SortCreatedAt: "tickets.created_at",
	ticketquery.SortUpdatedAt: "tickets.updated_at",
}

// applyFilter adds every supplied constraint as a bound parameter.
func applyFilter(q *gorm.DB, f ticketquery.Filter) *gorm.DB {
	if f.ProjectID != nil {
		q = q.Where("tickets.project_id = ?", *f.ProjectID)
	}
	if f.Status != nil {
		q = q.Where("tickets.status = ?", string(*f.Status))
	}
	if f.Priority != nil {
		q = q.Where("tickets.priority = ?", string(*f.Priority))
	}
	if f.AssigneeID != nil {
		q = q.Where("tickets.assignee_id = ?", *f.AssigneeID)
	}
	return q
}

// orderBy sorts by the requested key with the id as tiebreaker, so pages
// over the same filtered set never overlap.
func orderBy(q *gorm.DB, key ticketquery.SortKey, order ticketquery.Order) *gorm.DB {
	desc := order != ticketquery.Asc

	if key == ticketquery.SortPriority {
		// A single expression: gorm drops an OrderBy expression once plain
		// columns are merged into the same clause.
		return q.Order(clause.OrderBy{Expression: priorityRank(desc)})
	}

	column, ok := sortColumns[key]
	if !ok {
		column = sortColumns[ticketquery.SortCreatedAt]
	}
	return q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: column, Raw: true}, Desc: desc},
		{Column: clause.Column{Name: "tickets.id", Raw: true}, Desc: desc},
	}})
}

// priorityRank orders by urgency instead of by the stored string, then by id.
func priorityRank(desc bool) clause.Expression {
	dir := ""
	if desc {
		dir = " DESC"
	}
	sql := "CASE tickets.priority"
	var vars []any
	for _, p := range domain.AllPriorities {
		sql += fmt.Sprintf(" WHEN ? THEN %d", p.Rank())
		vars = append(vars, string(p))
	}
	sql += " ELSE 0 END" + dir + ", tickets.id" + dir
	return clause.Expr{SQL: sql, Vars: vars}
}
