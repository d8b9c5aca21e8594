// Package rate throttles failed logins on the development identity service
// with Redis fixed-window counters.
//
// Each failure runs INCR and, on the first hit of a window, EXPIRE. Keys are
// <prefix>:user:<username> and, with PerIP, <prefix>:ip:<address>.
package rate
