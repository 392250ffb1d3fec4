// Package core provides record loading, validation and cross-reference
// integrity for the hospital, provider, patient and treatment CSV files.
//
// This package is independent of any UI or transport layer. It can be used by
// the HTTP adapter, CLI tools, or tests without modification.
//
// # Record Kinds
//
// Each kind is registered at init time with [Register]. A [Schema] names the
// backing file and the positional header columns:
//
//	Hospitals   "Name","Identity"
//	Providers   "Name","Number","Hospital","Doctor"
//	Patients    "Medical Reference Number","Patient Name"
//	Treatments  "Details","Hospital","Provider","Patient","Date/Time Discharged"
//
// # Loading
//
// [ReadRecords] skips the header line and blank lines, splits each remaining
// line on commas (quoted delimiters are not supported) and maps the fields
// positionally. A row with too few fields fails the whole load with a
// [MalformedRowError].
//
// The per-kind loaders ([LoadHospitals], [LoadProviders], [LoadPatients],
// [LoadTreatments]) filter the parsed rows through their validators. Invalid
// records never fail a load: they are returned as [Rejection] diagnostics in
// [LoadResult.Rejected] next to the valid set.
//
// Treatments are validated against the three reference collections, which
// must therefore be loaded first. Hospital and provider references match on
// name; the patient reference matches on the medical reference number.
//
// # Editing
//
// The treatment collection is the only mutable set. [ApplyEdit] overwrites an
// element by index (out-of-range indices yield a no-op [EditOutcome]),
// [ApplyAppend] adds one at the end. [Service] wraps both in a single-writer
// [WriteGate], persists the whole collection with [SaveTreatments] and
// reloads a fresh [Dataset].
//
// # History
//
// Every edit outcome goes to the optional [Journal] and to a small in-memory
// history read by [Service.RecentEdits]. A journal that implements
// [JournalPruner] can be trimmed periodically with
// [Service.StartJournalPruner].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError]:
//
//   - REC001: Malformed row (too few fields)
//   - FILE001-FILE002: Data file missing or unreadable
//   - WRT001-WRT002: Treatment writer busy or write failed
package core
