package docsource

// NewSampleSource returns the embedded demonstration document: a small
// power-delivery style specification with a title page, a two-page table
// of contents, and a body whose headings match the declared entries. It
// exercises every pipeline stage without needing an input file.
func NewSampleSource() *SliceSource {
	return NewSliceSource(samplePages())
}

// SampleName identifies the embedded document where a file path would
// normally appear.
const SampleName = "embedded-sample"

func samplePages() [][]string {
	return [][]string{
		{
			"",
			"Universal Serial Bus",
			"Power Delivery Sample Specification",
			"Revision 3.2, Version 1.1",
			"",
			"October 2024",
		},
		{
			"Table of Contents",
			"",
			"1 Introduction .......................... 4",
			"1.1 Scope ............................... 4",
			"1.2 Related Documents ................... 5",
			"2 Overview .............................. 6",
			"2.1 Power Delivery Contracts ............ 6",
			"2.1.1 Contract Negotiation .............. 7",
			"2.2 Source Operation .................... 8",
		},
		{
			"3 Protocol Layer ........................ 9",
			"3.1 Message Construction ................ 9",
			"3.2 State Machines ...................... 10",
			"4 Electrical Requirements ............... 11",
		},
		{
			"1 Introduction",
			"This document defines a power delivery system covering the",
			"contracts negotiated between a source and a sink over a single",
			"cable. It replaces the default power levels of the base bus",
			"definition with negotiated levels agreed by both port partners.",
			"Throughout, the provider of power is called the source and the",
			"consumer of power is called the sink.",
			"",
			"1.1 Scope",
			"The scope covers contract negotiation, source operation, and",
			"the protocol layer used for all communication between partners.",
			"Mechanical dimensions of plugs and receptacles are out of scope",
			"and defined by the cable and connector documents instead.",
		},
		{
			"1.2 Related Documents",
			"The cable and connector document describes the plug and the",
			"receptacle referenced throughout this text. The base bus",
			"definition describes default operation before any contract is",
			"agreed. Conformance criteria for both are collected in the",
			"shared compliance plan, which also lists the measurement",
			"conditions applying to every electrical limit in this document.",
			"Readers are expected to be familiar with all three.",
		},
		{
			"2 Overview",
			"The system negotiates an explicit contract before any power",
			"beyond the default level is delivered. Once agreed, a contract",
			"stays in force until either partner requests renegotiation or",
			"the cable is detached. Contract state is never inferred from",
			"electrical conditions alone.",
			"",
			"2.1 Power Delivery Contracts",
			"A contract fixes the voltage and current a source supplies.",
			"Either side may initiate renegotiation at any time, and the",
			"source may reduce its offer when its own supply is constrained.",
			"A sink that cannot operate at the offered levels signals this",
			"rather than drawing power outside the agreed envelope.",
		},
		{
			"2.1.1 Contract Negotiation",
			"Negotiation begins when the source advertises capabilities on",
			"attach. The sink evaluates the advertisement, selects one of",
			"the offered levels, and requests it. Figure 1 shows the message",
			"sequence for a successful negotiation ending in an accepted",
			"request and a ready indication from the source. A rejected",
			"request leaves the previous contract, if any, in force. The",
			"sink may retry with a different selection after any rejection,",
			"and the source re-advertises whenever its capabilities change.",
		},
		{
			"2.2 Source Operation",
			"A source advertises fixed supply levels in priority order,",
			"lowest voltage first. The levels below are the normative rules",
			"for a source presenting the full capability set.",
			"",
			"Table 1  Source Power Rules",
			"Voltage    Current    Power",
			"5V         3A         15W",
			"9V         3A         27W",
			"15V        3A         45W",
			"",
			"A source that cannot sustain an advertised level under load",
			"shall withdraw the advertisement before accepting any request",
			"that selects it, and shall renegotiate active contracts first.",
		},
		{
			"3 Protocol Layer",
			"The protocol layer constructs, transmits, and acknowledges the",
			"messages exchanged by port partners on behalf of the policy",
			"engine above it. It guarantees ordered delivery and detects",
			"both corrupted and missing messages, retransmitting as needed",
			"within the timing limits set by this document.",
			"",
			"3.1 Message Construction",
			"Every message carries a header identifying its type and the",
			"running message identifier used for duplicate detection. The",
			"header also carries the revision so that partners implementing",
			"different revisions can settle on a common message set before",
			"exchanging anything revision-specific.",
		},
		{
			"3.2 State Machines",
			"Each port runs a state machine driving protocol timing for its",
			"role. Transitions fire on message receipt, on timer expiry, or",
			"on detach. A port shall treat an unexpected message as a",
			"protocol error and recover by resetting the connection to the",
			"default state rather than guessing the partner's intent. All",
			"timers in this clause are measured at the plug of the port",
			"under test using the conditions of the compliance plan.",
		},
		{
			"4 Electrical Requirements",
			"The source shall maintain its advertised voltage within the",
			"transient envelope while the contract is active, including",
			"during load steps applied at the maximum agreed current. The",
			"sink shall keep its inrush within the limits agreed at attach,",
			"and both partners shall tolerate cable voltage drop up to the",
			"worst case allowed by the cable and connector document.",
		},
		{
			"Annex A, informative: measurement setups for the transient",
			"envelope are described in the compliance plan, together with",
			"suggested fixtures for load-step generation at the receptacle.",
		},
	}
}
