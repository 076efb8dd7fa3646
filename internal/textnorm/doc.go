// Package textnorm turns raw product names into comparison keys and measures
// how far apart two keys are.
//
// Two keys exist. Key is the strict form used for exact lookups and edit
// distance ranking: the slug suffix is removed, case and accents are folded and
// only letters and digits survive. Loose keeps punctuation and inner spaces so
// that substring tests behave the way a human typing part of a name expects.
package textnorm
