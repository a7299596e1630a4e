// Package verify implements the VerificationGate: five independently scored
// checks (quality, tests, security, build, runtime), combined into a
// weighted score and a pass/fail decision.
package verify
