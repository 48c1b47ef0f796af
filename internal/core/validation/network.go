package validation

import "strconv"

// CardNetwork identifies the scheme a card number belongs to.
type CardNetwork string

const (
	NetworkVisa       CardNetwork = "Visa"
	NetworkMasterCard CardNetwork = "MasterCard"
	NetworkMaestro    CardNetwork = "Maestro"
	NetworkAMEX       CardNetwork = "AMEX"
	NetworkUnknown    CardNetwork = "Unknown"
)

// iinRange is an inclusive range over the first len(lo) digits of a PAN.
type iinRange struct {
	lo, hi  string
	network CardNetwork
}

// iinTable is scanned in order; more specific prefixes come first.
var iinTable = []iinRange{
	{"34", "34", NetworkAMEX},
	{"37", "37", NetworkAMEX},
	{"4", "4", NetworkVisa},
	{"2221", "2720", NetworkMasterCard},
	{"51", "55", NetworkMasterCard},
	{"5018", "5018", NetworkMaestro},
	{"5020", "5020", NetworkMaestro},
	{"5038", "5038", NetworkMaestro},
	{"6304", "6304", NetworkMaestro},
	{"6759", "6759", NetworkMaestro},
	{"676", "676", NetworkMaestro},
}

// DetectNetwork maps a card number prefix onto its network. Prefixes too
// short to decide return NetworkUnknown.
func DetectNetwork(prefix string) CardNetwork {
	for _, r := range iinTable {
		n := len(r.lo)
		if len(prefix) < n {
			continue
		}
		v, err := strconv.Atoi(prefix[:n])
		if err != nil {
			return NetworkUnknown
		}
		lo, _ := strconv.Atoi(r.lo)
		hi, _ := strconv.Atoi(r.hi)
		if v >= lo && v <= hi {
			return r.network
		}
	}
	return NetworkUnknown
}

// SecurityCodeValid checks the CV2 length for network.
func SecurityCodeValid(network CardNetwork, code string) bool {
	want := 3
	if network == NetworkAMEX {
		want = 4
	}
	if len(code) != want {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
