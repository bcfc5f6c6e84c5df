package utils

// Physical constants, SI (CODATA 2018)
const (
	QE       = 1.602176634e-19  // elementary charge [C]
	ME       = 9.1093837015e-31 // electron mass [kg]
	MP       = 1.67262192369e-27
	CLIGHT   = 299792458.
	MU0      = 1.25663706212e-06
	EPSILON0 = 8.8541878128e-12
	KB       = 1.380649e-23
)

// PhysConstMap names the constants available to analytic expressions
var PhysConstMap = map[string]float64{
	"q_e":      QE,
	"m_e":      ME,
	"m_p":      MP,
	"clight":   CLIGHT,
	"mu0":      MU0,
	"epsilon0": EPSILON0,
	"kb":       KB,
}
