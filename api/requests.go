package api

type HashRequest struct {
	FilePath   string   `json:"filePath"`
	Algorithms []string `json:"algorithms"`
}

type BatchRequest struct {
	FilePaths  []string `json:"filePaths"`
	Algorithms []string `json:"algorithms"`
}

type ScanRequest struct {
	DirPath string `json:"dirPath"`
}

type AlgorithmsResponse struct {
	Algorithms []string `json:"algorithms"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
