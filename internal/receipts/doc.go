// Package receipts is the goods-receipt feature module.
//
// The feature owns the "operationsGR" slice and registers it with the
// container the first time a surface activates it (see Feature). It also
// carries the new-operation form workflow: drafting initial values from the
// signed-in employee, validation, normalization into a create body, the
// supplier shipment number duplicate check and submission through the
// CreateOperation thunk.
package receipts
