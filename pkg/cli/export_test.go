package cli

// IndexConfigForTest exposes the Firestore index configuration to tests
var IndexConfigForTest = getIndexConfig
