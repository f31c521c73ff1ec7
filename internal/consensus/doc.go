// Package consensus turns verified findings from independent review
// sources into one synthesized report.
//
// The stages run strictly forward: Group partitions verified findings into
// clusters that describe one underlying issue (greedy first-fit over a
// stable ordering), Score calibrates each multi-source cluster from source
// coverage, mean adjusted confidence, and severity agreement, and
// Synthesize assembles consensus findings, single-source findings, merged
// agree/disagree stances, and aggregate risk. Run wires the stages
// together over a per-call file cache.
//
// Genuine disagreements between sources are surfaced with every stance
// intact; the pipeline never picks a technical winner.
package consensus
