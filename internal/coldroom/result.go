package coldroom

// Dimensions echo the room geometry, m.
type Dimensions struct {
	Length     float64 `json:"length"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	DoorWidth  float64 `json:"doorWidth"`
	DoorHeight float64 `json:"doorHeight"`
}

type DoorDimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ConstructionInfo echoes the envelope with the derived U-factors. Type and
// Thickness repeat InsulationType and WallThickness for older report layouts.
type ConstructionInfo struct {
	InsulationType   string  `json:"insulationType"`
	Type             string  `json:"type"`
	Thickness        float64 `json:"thickness"`
	WallThickness    float64 `json:"wallThickness"`
	CeilingThickness float64 `json:"ceilingThickness"`
	FloorThickness   float64 `json:"floorThickness"`
	UFactor          float64 `json:"uFactor"`
	CeilingUFactor   float64 `json:"ceilingUFactor"`
	FloorUFactor     float64 `json:"floorUFactor"`
	NumberOfHeaters  int     `json:"numberOfHeaters"`
	NumberOfDoors    int     `json:"numberOfDoors"`
}

type ProductInfo struct {
	Type            string  `json:"type"`
	Mass            float64 `json:"mass"`
	IncomingTemp    float64 `json:"incomingTemp"`
	OutgoingTemp    float64 `json:"outgoingTemp"`
	SpecificHeat    float64 `json:"specificHeat"`
	RespirationRate float64 `json:"respirationRate"`
	StorageType     string  `json:"storageType"`
}

// ConditionsInfo echoes the resolved operating conditions and usage.
type ConditionsInfo struct {
	ExternalTemp        float64 `json:"externalTemp"`
	InternalTemp        float64 `json:"internalTemp"`
	OperatingHours      float64 `json:"operatingHours"`
	PullDownTime        float64 `json:"pullDownTime"`
	DoorOpenings        float64 `json:"doorOpenings"`
	DoorClearOpening    float64 `json:"doorClearOpening"`
	Humidity            float64 `json:"humidity"`
	ExternalHumidity    float64 `json:"externalHumidity"`
	SteamHumidification bool    `json:"steamHumidification"`
	StorageDensity      float64 `json:"storageDensity"`
	NumberOfPeople      int     `json:"numberOfPeople"`
	WorkingHours        float64 `json:"workingHours"`
	LightingWattage     float64 `json:"lightingWattage"`
	EquipmentLoad       float64 `json:"equipmentLoad"`
	FanMotorRating      float64 `json:"fanMotorRating"`
	NumberOfFans        int     `json:"numberOfFans"`
	AirFlowPerFan       float64 `json:"airFlowPerFan"`
}

// LoadBreakdown lists every physical term, kW.
type LoadBreakdown struct {
	Transmission  Transmission  `json:"transmission"`
	Product       float64       `json:"product"`
	Respiration   float64       `json:"respiration"`
	AirChange     float64       `json:"airChange"`
	DoorOpening   float64       `json:"doorOpening"`
	Miscellaneous Miscellaneous `json:"miscellaneous"`
	Heaters       Heaters       `json:"heaters"`
}

// Total sums the breakdown. The safety margin is never part of it.
func (b LoadBreakdown) Total() float64 {
	return b.Transmission.Total + b.Product + b.Respiration + b.AirChange +
		b.DoorOpening + b.Miscellaneous.Total + b.Heaters.Total
}

// DailyLoads splits the pre-margin total into sensible and latent heat.
type DailyLoads struct {
	Sensible float64 `json:"sensible"`
	Latent   float64 `json:"latent"`
	SHR      float64 `json:"shr"`
}

// StorageInfo compares the daily intake with what the room can hold.
// Utilization is reported raw and may exceed 100.
type StorageInfo struct {
	MaxStorage        float64 `json:"maxStorage"`
	CurrentLoad       float64 `json:"currentLoad"`
	Utilization       float64 `json:"utilization"`
	AvailableCapacity float64 `json:"availableCapacity"`
	Density           float64 `json:"density"`
}

// AirFlowInfo sizes the evaporator fans. FansRequired is the whole number of
// fans that deliver RecommendedCfm; InstalledCfm is what the configured fans
// deliver.
type AirFlowInfo struct {
	AirChangesPerHour float64 `json:"airChangesPerHour"`
	RequiredCfm       float64 `json:"requiredCfm"`
	RecommendedCfm    float64 `json:"recommendedCfm"`
	AirFlowPerFan     float64 `json:"airFlowPerFan"`
	FansRequired      float64 `json:"fansRequired"`
	InstalledCfm      float64 `json:"installedCfm"`
	FanMotorLoad      float64 `json:"fanMotorLoad"`
}

// LoadResult is the complete outcome of one calculation.
type LoadResult struct {
	Dimensions     Dimensions       `json:"dimensions"`
	DoorDimensions DoorDimensions   `json:"doorDimensions"`
	Volume         float64          `json:"volume"`
	Areas          Areas            `json:"areas"`
	Construction   ConstructionInfo `json:"construction"`
	ProductInfo    ProductInfo      `json:"productInfo"`
	Conditions     ConditionsInfo   `json:"conditions"`

	TemperatureDifference float64 `json:"temperatureDifference"`
	PullDownTime          float64 `json:"pullDownTime"`

	Breakdown         LoadBreakdown `json:"breakdown"`
	TotalBeforeSafety float64       `json:"totalBeforeSafety"`
	SafetyFactorLoad  float64       `json:"safetyFactorLoad"`
	FinalLoad         float64       `json:"finalLoad"`

	TotalTR  float64 `json:"totalTR"`
	TotalBTU float64 `json:"totalBTU"`
	DailyKJ  float64 `json:"dailyKJ"`
	DailyKWh float64 `json:"dailyKWh"`

	SHR        float64    `json:"shr"`
	DailyLoads DailyLoads `json:"dailyLoads"`

	StorageInfo StorageInfo `json:"storageInfo"`
	AirFlowInfo AirFlowInfo `json:"airFlowInfo"`
}

// ToTR converts a load in kW to tons of refrigeration.
func ToTR(kw float64) float64 { return kw / KWPerTR }

// ToBTU converts a load in kW to BTU/h.
func ToBTU(kw float64) float64 { return kw * BTUPerHourPerKW }
