package egms2risk

// InfraClass Supported infrastructure classes
type InfraClass uint16

const (
	INFRA_RAILWAY = InfraClass(iota + 1)
	INFRA_ROAD
	INFRA_PORT
)

func (iotaIdx InfraClass) String() string {
	if iotaIdx < INFRA_RAILWAY || iotaIdx > INFRA_PORT {
		return ""
	}
	return [...]string{"railway", "road", "port"}[iotaIdx-1]
}

// infraClasses Lookup table for parsing class names from file properties
var infraClasses = map[string]InfraClass{
	"railway": INFRA_RAILWAY,
	"rail":    INFRA_RAILWAY,
	"road":    INFRA_ROAD,
	"highway": INFRA_ROAD,
	"port":    INFRA_PORT,
	"harbour": INFRA_PORT,
}

func getInfraClass(str string) InfraClass {
	if found, ok := infraClasses[str]; ok {
		return found
	}
	return 0
}

// classPriority Fixed order used both for output and for picking the primary
// class of a point falling into overlapping buffers: railway > road > port
var classPriority = [...]InfraClass{INFRA_RAILWAY, INFRA_ROAD, INFRA_PORT}

// DefaultBufferDistances Buffer distances per infrastructure class (meters).
// Port boundary is used as-is (zero buffer).
var DefaultBufferDistances = map[InfraClass]float64{
	INFRA_RAILWAY: 50.0,
	INFRA_ROAD:    30.0,
	INFRA_PORT:    0.0,
}
