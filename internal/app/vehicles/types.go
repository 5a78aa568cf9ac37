package vehicles

// Optional distinguishes a field left untouched by an update from one set to a value,
// including the empty value.
type Optional[T any] struct {
	specified bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) Value() T          { return o.value }

type CreateInput struct {
	VehicleNumber    string
	PassNumber       string
	FlatNumber       string
	OwnerName        string
	OwnerContact     string
	DLOrRCNumber     string
	AlternateContact string
	Email            string
	PermanentAddress string
	FlatOwnerName    string
	VehicleType      string
	// ValidTill is YYYY-MM-DD; empty means today.
	ValidTill string
}

type Patch struct {
	VehicleNumber    Optional[string]
	PassNumber       Optional[string]
	FlatNumber       Optional[string]
	OwnerName        Optional[string]
	OwnerContact     Optional[string]
	DLOrRCNumber     Optional[string]
	AlternateContact Optional[string]
	Email            Optional[string]
	PermanentAddress Optional[string]
	FlatOwnerName    Optional[string]
	VehicleType      Optional[string]
	ValidTill        Optional[string]
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return !p.VehicleNumber.IsSpecified() &&
		!p.PassNumber.IsSpecified() &&
		!p.FlatNumber.IsSpecified() &&
		!p.OwnerName.IsSpecified() &&
		!p.OwnerContact.IsSpecified() &&
		!p.DLOrRCNumber.IsSpecified() &&
		!p.AlternateContact.IsSpecified() &&
		!p.Email.IsSpecified() &&
		!p.PermanentAddress.IsSpecified() &&
		!p.FlatOwnerName.IsSpecified() &&
		!p.VehicleType.IsSpecified() &&
		!p.ValidTill.IsSpecified()
}
