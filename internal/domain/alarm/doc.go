// Package alarm contains core domain types for the alarm scheduling logic.
//
// It defines Record (the persistent alarm entity), TimeOfDay and DaySet
// value types with parsing helpers, the error taxonomy shared by all
// services, and the pure next-trigger computation.
package alarm
