// Package healthscore computes a weighted 0-100 financial health score from a
// profile and a transaction history.
//
// Every function in this package is pure: it reads only its arguments and
// returns freshly allocated values, so it is safe for concurrent use. The only
// time dependency is the explicit "now" used for the trailing growth window.
package healthscore
