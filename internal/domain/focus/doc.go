// Package focus maintains the visible document subset for the active
// session. Focused sessions narrow the library through the document
// service; general sessions see everything. Because session switches
// can race in-flight filter requests, each request carries a ticket
// and only the newest ticket may commit its result.
package focus
