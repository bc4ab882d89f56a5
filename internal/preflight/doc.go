// Package preflight provides readiness checks for the subtitle catalog
// and the filesystem paths dualsub writes to.
//
// The CLI "dualsub status" command runs RunAll and renders the results as a
// table. The merge command does not call these checks; a catalog outage
// surfaces there as an insufficient-data outcome instead.
package preflight
