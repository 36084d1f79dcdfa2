// Package output projects linked, resolved rows onto the final record layout.
package output

import (
	"github.com/agentstation/bizmerge/pkg/linkage"
	"github.com/agentstation/bizmerge/pkg/reconciler"
	"github.com/agentstation/bizmerge/pkg/sources"
)

// Columns is the exact output column order.
var Columns = []string{
	linkage.ColumnRootDomain,
	linkage.ColumnDomain,
	linkage.ColumnDomainGoogleUnique,
	linkage.ColumnDomainGoogleNonUniqueReliable,
	linkage.ColumnDomainGoogleNonUniqueLessReliable,
	sources.Category,
	sources.Address,
	sources.Name,
	sources.Phone,
}

// Record is one row of the fused output. Nil fields are null.
type Record struct {
	RootDomain                        *string `json:"root_domain" yaml:"root_domain"`
	Domain                            *string `json:"domain" yaml:"domain"`
	DomainGoogleUnique                *string `json:"domain_google_unique" yaml:"domain_google_unique"`
	DomainGoogleNonUniqueReliable     *string `json:"domain_google_non_unique_reliable" yaml:"domain_google_non_unique_reliable"`
	DomainGoogleNonUniqueLessReliable *string `json:"domain_google_non_unique_less_reliable" yaml:"domain_google_non_unique_less_reliable"`
	Category                          *string `json:"category" yaml:"category"`
	Address                           *string `json:"address" yaml:"address"`
	Name                              *string `json:"name" yaml:"name"`
	Phone                             *string `json:"phone" yaml:"phone"`
}

// Values returns the fields in Columns order.
func (r Record) Values() []*string {
	return []*string{
		r.RootDomain,
		r.Domain,
		r.DomainGoogleUnique,
		r.DomainGoogleNonUniqueReliable,
		r.DomainGoogleNonUniqueLessReliable,
		r.Category,
		r.Address,
		r.Name,
		r.Phone,
	}
}

// Strings returns the fields in Columns order with null rendered as "".
func (r Record) Strings() []string {
	values := r.Values()
	out := make([]string, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

// Project builds one record per linked row, keeping linkage order. fused
// must be index-aligned with rows; a missing entry leaves the resolved
// attributes null.
func Project(rows []*linkage.Row, fused []reconciler.Fused) []Record {
	records := make([]Record, len(rows))
	for i, row := range rows {
		var f reconciler.Fused
		if i < len(fused) {
			f = fused[i]
		}
		records[i] = Record{
			RootDomain:                        column(row, linkage.ColumnRootDomain),
			Domain:                            column(row, linkage.ColumnDomain),
			DomainGoogleUnique:                column(row, linkage.ColumnDomainGoogleUnique),
			DomainGoogleNonUniqueReliable:     column(row, linkage.ColumnDomainGoogleNonUniqueReliable),
			DomainGoogleNonUniqueLessReliable: column(row, linkage.ColumnDomainGoogleNonUniqueLessReliable),
			Category:                          f.Ptr(sources.Category),
			Address:                           f.Ptr(sources.Address),
			Name:                              f.Ptr(sources.Name),
			Phone:                             f.Ptr(sources.Phone),
		}
	}
	return records
}

func column(row *linkage.Row, name string) *string {
	if v, ok := row.Column(name); ok {
		return &v
	}
	return nil
}
