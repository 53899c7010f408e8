// Package models defines the core domain models for The Current-See.
//
// # Models
//
//   - Member: a registered participant holding a SOLAR balance
//   - Admin: an operator account allowed to use the admin RPC surface
//   - DistributionRun: one execution of the daily SOLAR distribution
//   - Artifact: a marketplace file stored in three copies
//
// # Design Principles
//
// 1. **One shape for every backend**: sqlite, postgres, the JSON file and the
// in-memory store all persist exactly these structs
// 2. **Exact money**: SOLAR and dollar balances use decimal.Decimal, never float64
// 3. **Dates as calendar days**: distribution bookkeeping uses YYYY-MM-DD strings so the
// day boundary is decided once, by the distributor's time zone
// 4. **Avoid circular references**: use ID strings instead of pointers for relationships
package models
