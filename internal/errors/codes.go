package errors

// Status codes follow the Neo4j status code layout
// (Namespace.Category.Title) with a QuantaGraph namespace.

// Statement errors are caused by the statement being compiled and are the
// caller's to fix.
const (
	SyntaxError         = "Quanta.Statement.SyntaxError"
	UnresolvedReference = "Quanta.Statement.UnresolvedReference"
	UnplannablePattern  = "Quanta.Statement.UnplannablePattern"
	InvalidAggregation  = "Quanta.Statement.InvalidAggregation"
	InvalidScenario     = "Quanta.Statement.InvalidScenario"
)

// Database errors concern the statistics catalog backing the cost model.
const (
	UnknownIndex      = "Quanta.Database.UnknownIndex"
	DuplicateIndex    = "Quanta.Database.DuplicateIndex"
	InvalidStatistics = "Quanta.Database.InvalidStatistics"
)

// Internal errors should never occur for well-formed input; they indicate a
// bug in the compiler itself.
const (
	InternalConsistency = "Quanta.Internal.ConsistencyViolation"
)
