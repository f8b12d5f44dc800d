// Package demand calculates a settlement demand for a case and renders the
// demand letter sent to the defendant's insurance carrier.
//
// The demand is the medical specials plus pain and suffering, where pain and
// suffering is the specials times a multiplier. The multiplier range comes
// from the injury severity and the point within the range from the strength
// of liability. The letter is rendered as Markdown or as an HTML page.
package demand
