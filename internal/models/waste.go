package models

type WasteType string

const (
	WastePaper             WasteType = "Paper"
	WasteCardboard         WasteType = "Cardboard"
	WasteGlass             WasteType = "Glass"
	WastePlasticBottles    WasteType = "Plastic Bottles & Containers"
	WastePlasticBags       WasteType = "Plastic Bags & Wraps"
	WasteMetalCans         WasteType = "Metal Cans"
	WasteOtherMetal        WasteType = "Other Metal Items"
	WasteWood              WasteType = "Wood"
	WasteTextiles          WasteType = "Textiles & Clothes"
	WasteShoesLeather      WasteType = "Shoes & Leather"
	WasteElectronics       WasteType = "Electronics"
	WasteBatteries         WasteType = "Batteries"
	WasteRubber            WasteType = "Rubber"
	WasteBuildingMaterials WasteType = "Building Materials"
	WasteOrganic           WasteType = "Organic Waste"
	WasteOther             WasteType = "Other"
)

// WasteTypes lists every accepted waste tag in display order.
var WasteTypes = []WasteType{
	WastePaper,
	WasteCardboard,
	WasteGlass,
	WastePlasticBottles,
	WastePlasticBags,
	WasteMetalCans,
	WasteOtherMetal,
	WasteWood,
	WasteTextiles,
	WasteShoesLeather,
	WasteElectronics,
	WasteBatteries,
	WasteRubber,
	WasteBuildingMaterials,
	WasteOrganic,
	WasteOther,
}

func (w WasteType) IsValid() bool {
	for _, t := range WasteTypes {
		if t == w {
			return true
		}
	}
	return false
}

// WeightCategory values use an en dash, matching what is persisted.
type WeightCategory string

const (
	Weight0To2   WeightCategory = "0–2 kg"
	Weight2To5   WeightCategory = "2–5 kg"
	Weight5To10  WeightCategory = "5–10 kg"
	Weight10To20 WeightCategory = "10–20 kg"
	Weight20To30 WeightCategory = "20–30 kg"
	Weight30To50 WeightCategory = "30–50 kg"
	Weight50Plus WeightCategory = "50+ kg"
)

var WeightCategories = []WeightCategory{
	Weight0To2,
	Weight2To5,
	Weight5To10,
	Weight10To20,
	Weight20To30,
	Weight30To50,
	Weight50Plus,
}

var weightMidpoints = map[WeightCategory]float64{
	Weight0To2:   1,
	Weight2To5:   3.5,
	Weight5To10:  7.5,
	Weight10To20: 15,
	Weight20To30: 25,
	Weight30To50: 40,
	Weight50Plus: 60,
}

func (w WeightCategory) IsValid() bool {
	_, ok := weightMidpoints[w]
	return ok
}

// Midpoint returns the estimation weight in kg, 1 for an unknown band.
func (w WeightCategory) Midpoint() float64 {
	if m, ok := weightMidpoints[w]; ok {
		return m
	}
	return 1
}
