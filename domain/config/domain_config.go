package config

// DomainConfig holds the configurable rules of the knowledge base
type DomainConfig struct {
	// Layout of the knowledge root
	ImagesDir     string
	LeafExtension string

	// Document ids of the flat documents
	KnowledgeConfigDoc  string
	MemberAttributesDoc string

	// Name constraints
	MaxItemNameLength int

	// Import limits
	MaxImportRecords int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		ImagesDir:     "images",
		LeafExtension: ".json",

		KnowledgeConfigDoc:  "knowledge-config",
		MemberAttributesDoc: "member-attributes",

		MaxItemNameLength: 1000,

		MaxImportRecords: 10000,
	}
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Bigger imports are handy when seeding test data
	config.MaxImportRecords = 100000

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
