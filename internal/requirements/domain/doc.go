// Package domain holds the pure rules of the requirement lifecycle: the
// closed set of requirement kinds, the workflow state machine, endorsement
// categories and their aggregation, and the reqId format. Nothing in this
// package touches storage; the service layer applies these rules inside
// store transactions.
package domain
