// Package domain defines the core business types for the newsletter service.
//
// Types in this package are value objects with no database dependencies and
// no HTTP concerns. They are the shared language between handlers, services,
// and repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - Subscriber identity types are obtained only through their Parse
//     functions, so every instance in the program has already been validated
//   - Constants and enums belong here
package domain
