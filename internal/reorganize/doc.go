// Package reorganize tidies an existing game library folder in two
// phases. Analyze inspects the immediate children of the folder and
// returns a Plan of actions without touching anything; Execute applies a
// plan in order, recording an outcome per action and never rolling back.
package reorganize
