// Package capability describes the interceptable surface of a type as an
// ordered set of member descriptors with a comparable identity.
//
// A Set is derived from one of three declaration shapes:
//   - FromInterface: each method of an interface becomes a member,
//     declared independently of any implementation
//   - FromSurface: each exported func-typed field of a surface struct
//     becomes a member; other fields are ignored
//   - OfTarget: each exported method of a concrete value becomes a
//     member, receiver stripped
//
// Every Method records the member's func shape along with traits the
// weaving layers need: whether it takes a leading context.Context,
// whether it returns a trailing error, variadic arity, and the property
// name for setter-shaped members (SetX with one value argument).
//
// Sets derived from the same origin type share an ID, which is what keys
// generated surfaces and per-member handler registrations. Conforms
// checks a concrete target against the set by duck typing: the target
// must offer every member with a matching signature, with or without the
// leading context.
//
// Surface struct fields may carry an `aspect` tag naming a handler
// policy; the tag travels on the Method so metadata-driven proxies can
// resolve it.
package capability
