package vm

// SimulationConfig substitutes deterministic sources for on-chain
// randomness and signature verification during replay (spec.md §4.5
// "Deterministic entropy"). Under PassThroughCrypto, verification
// natives must accept any well-formed input rather than performing real
// cryptographic checks, since replay has no access to a valid signer.
type SimulationConfig struct {
	RNGSeed           uint64
	PassThroughCrypto bool
}

// DefaultSimulationConfig matches the replay core's required default:
// deterministic entropy is always substituted, never left to the host's
// real randomness source.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{RNGSeed: 1, PassThroughCrypto: true}
}

// DeterministicRNG is a minimal splitmix64-style generator seeded from
// SimulationConfig.RNGSeed, used wherever the executor needs a stand-in
// for Move's `sui::random` natives.
type DeterministicRNG struct {
	state uint64
}

func NewDeterministicRNG(seed uint64) *DeterministicRNG {
	return &DeterministicRNG{state: seed}
}

func (r *DeterministicRNG) Next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
