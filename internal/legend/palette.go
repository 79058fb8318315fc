package legend

// Palettes are chosen to stay distinguishable in gray-scale print.
var (
	// DisorderPalette is Viridis (12).
	DisorderPalette = []string{
		"#fde725", "#c2df23", "#86d549", "#52c569", "#2ab07f", "#1e9b8a",
		"#25858e", "#2d708e", "#38588c", "#433e85", "#482173", "#440154",
	}
	// HPOPalette is Magma (12).
	HPOPalette = []string{
		"#fcfdbf", "#fed395", "#fea973", "#fa7d5e", "#e95462", "#c83e73",
		"#a3307e", "#7e2482", "#59157e", "#331067", "#120d31", "#000004",
	}
	// GenePalette is Inferno (12).
	GenePalette = []string{
		"#fcffa4", "#f5db4c", "#fcae12", "#f78410", "#e65d2f", "#cb4149",
		"#a92e5e", "#85216b", "#5f136e", "#390963", "#140b34", "#000004",
	}
)
