// Package review defines the shared data model for the verification and
// consensus pipeline.
//
// It fixes the total ordering over severity tiers (info < low < medium <
// high < critical) used everywhere severities are compared, the closed set
// of verification outcomes, and the value types that flow forward through
// the pipeline: SourceReview -> VerifiedFinding -> FindingGroup ->
// ConsensusReport.
//
// Everything here is a plain value created fresh per synthesis call;
// nothing persists between calls.
package review
