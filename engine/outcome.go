package engine

import "github.com/Konsultn-Engineering/sqlrepo/response"

// Outcome is what an operation produces: one set for a query, one set per
// executed statement for a transaction.
type Outcome struct {
	Sets []*response.Set
	// Partial is set when a transaction failed after some statements ran.
	Partial bool
}

// Single returns the first set, nil when there is none.
func (o *Outcome) Single() *response.Set {
	if o == nil || len(o.Sets) == 0 {
		return nil
	}
	return o.Sets[0]
}

func (o *Outcome) Len() int {
	if o == nil {
		return 0
	}
	return len(o.Sets)
}
