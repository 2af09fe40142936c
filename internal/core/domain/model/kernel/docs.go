// Package kernel holds the value objects shared by every aggregate of the
// trade order domain:
//   - UUID: identifier wrapper over github.com/google/uuid
//   - Money: non-negative decimal amount (github.com/shopspring/decimal) with a
//     normalised ISO-4217 currency
package kernel
