package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type labelDetector interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionClient names the food from image labels. It cannot estimate
// nutrition, so its output carries only food_name and confidence.
type RekognitionClient struct {
	http     *http.Client
	detector labelDetector
}

func NewRekognitionClient(ctx context.Context, httpClient *http.Client, region string) (*RekognitionClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &RekognitionClient{http: httpClient, detector: rekognition.NewFromConfig(cfg)}, nil
}

// Labels too broad to name a dish.
var genericLabels = map[string]bool{
	"Food": true, "Meal": true, "Dish": true, "Plant": true, "Produce": true,
	"Lunch": true, "Dinner": true, "Breakfast": true, "Plate": true, "Cutlery": true,
}

type labelAnalysis struct {
	FoodName   string `json:"food_name"`
	Confidence string `json:"confidence"`
}

func (r *RekognitionClient) Analyze(ctx context.Context, imageURL string) (string, error) {
	image, _, err := fetchImage(ctx, r.http, imageURL)
	if err != nil {
		return "", err
	}

	out, err := r.detector.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(10),
		MinConfidence: aws.Float32(60),
	})
	if err != nil {
		return "", fmt.Errorf("detect labels failed: %w", err)
	}

	var result labelAnalysis
	for _, l := range out.Labels {
		name := aws.ToString(l.Name)
		if name == "" || genericLabels[name] {
			continue
		}
		result = labelAnalysis{FoodName: name, Confidence: confidenceBand(aws.ToFloat32(l.Confidence))}
		break
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func confidenceBand(c float32) string {
	switch {
	case c >= 90:
		return "high"
	case c >= 75:
		return "medium"
	default:
		return "low"
	}
}
