package core

import "inventorycore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Product            = domain.Product
	RawMaterial        = domain.RawMaterial
	MaterialUsage      = domain.MaterialUsage
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	RulesEngine        = domain.RulesEngine
	Rule               = domain.Rule
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityProduct       = domain.EntityProduct
	EntityRawMaterial   = domain.EntityRawMaterial
	EntityMaterialUsage = domain.EntityMaterialUsage
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
