package abi

import (
	"fmt"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/desktable/aioweb3/ethtypes"
)

// ParsedEvent is one successfully decoded log: the EventSpec it
// matched, its decoded fields by name, and the originating LogData.
type ParsedEvent struct {
	Spec   EventSpec
	Fields map[string]interface{}
	Log    ethtypes.LogData
}

// ParseLog decodes a single log against spec:
//  1. topics[0] must equal the event's signature hash.
//  2. len(topics) must equal 1 + number of indexed fields.
//  3. each indexed field is ABI-decoded from its 32-byte topic slot.
//  4. the non-indexed fields are ABI-decoded, position-wise, from data.
func ParseLog(spec EventSpec, log ethtypes.LogData) (map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("abi: log has no topics")
	}
	if log.Topics[0] != spec.SigHash {
		return nil, fmt.Errorf("abi: log topic[0] %s does not match event %s signature hash %s",
			log.Topics[0], spec.Name, spec.SigHash)
	}
	if len(log.Topics) != 1+spec.NumIndexed() {
		return nil, fmt.Errorf("abi: log has %d indexed topics, event %s expects %d indexed fields",
			len(log.Topics)-1, spec.Name, spec.NumIndexed())
	}

	fields := make(map[string]interface{}, len(spec.Fields))

	for i, f := range spec.indexed {
		arg := spec.indexedArg[i]
		values, err := gethabi.Arguments{arg}.UnpackValues(log.Topics[1+i].Bytes())
		if err != nil {
			return nil, fmt.Errorf("abi: decode indexed field %s of event %s: %w", f.Name, spec.Name, err)
		}
		fields[f.Name] = values[0]
	}

	if len(spec.nonIndexed) > 0 {
		values, err := spec.dataArgs.UnpackValues(log.Data)
		if err != nil {
			return nil, fmt.Errorf("abi: decode data fields of event %s: %w", spec.Name, err)
		}
		for i, f := range spec.nonIndexed {
			fields[f.Name] = values[i]
		}
	}

	return fields, nil
}

// EventParser holds a registry of event specs keyed by signature hash
// and applies best-effort parsing over a heterogeneous log stream: a
// log whose first topic is unknown, or whose topic count mismatches
// the matched spec, is silently skipped rather than erroring.
type EventParser struct {
	bySigHash map[ethtypes.Hash]EventSpec
}

// NewEventParser builds a parser from the given specs, keyed by their
// derived signature hash.
func NewEventParser(specs ...EventSpec) *EventParser {
	p := &EventParser{bySigHash: make(map[ethtypes.Hash]EventSpec, len(specs))}
	for _, s := range specs {
		p.bySigHash[s.SigHash] = s
	}
	return p
}

// Parse applies every registered EventSpec over logs, returning one
// ParsedEvent per log that matches a known signature hash AND topic
// count. Logs without topics, with unknown signatures, or with
// mismatched indexed counts are skipped, not errored.
func (p *EventParser) Parse(logs []ethtypes.LogData) []ParsedEvent {
	var out []ParsedEvent
	for _, l := range logs {
		if len(l.Topics) == 0 {
			continue
		}
		spec, ok := p.bySigHash[l.Topics[0]]
		if !ok {
			continue
		}
		fields, err := ParseLog(spec, l)
		if err != nil {
			continue
		}
		out = append(out, ParsedEvent{Spec: spec, Fields: fields, Log: l})
	}
	return out
}
