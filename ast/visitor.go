package ast

type Visitor interface {
	VisitStatic(*Static) error
	VisitPlaceholder(*Placeholder) error

	VisitIf(*If) error
	VisitChoose(*Choose) error
	VisitForeach(*Foreach) error
	VisitBind(*Bind) error
	VisitInclude(*Include) error

	VisitWhere(*Where) error
	VisitSet(*Set) error
	VisitTrim(*Trim) error
	VisitSelect(*Select) error
	VisitOrderBy(*OrderBy) error
	VisitFragment(*Fragment) error
}
