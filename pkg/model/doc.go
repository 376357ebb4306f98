// Package model defines the value types shared by the deal entry form: the
// repeating setup-cost and interest-rate rows, the read-only FormSnapshot the
// validation engine consumes, and the FieldRef identifiers used to address
// validity markers on the form surface. Row-scoped fields use dotted paths
// (`setup_cost_fx.2`) so renderers can map markers onto repeated inputs
// without knowing how the rows are drawn.
package model
