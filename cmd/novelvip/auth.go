package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Nhatlinh9898/novelvip/internal/app"
	"github.com/Nhatlinh9898/novelvip/pkg/types"
)

var providerLabels = []struct {
	name  string
	label string
}{
	{"openai", "OpenAI"},
	{"gemini", "Google Gemini"},
	{"local", "Local (Ollama/LM Studio)"},
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Configure LLM provider authentication",
	RunE:  runAuthCmd,
}

func runAuthCmd(cmd *cobra.Command, args []string) error {
	listFlag, _ := cmd.Flags().GetBool("list")
	removeFlag, _ := cmd.Flags().GetString("remove")
	providerFlag, _ := cmd.Flags().GetString("provider")

	application, err := newApp(cmd, io.Discard)
	if err != nil {
		return err
	}
	defer application.Close()

	if listFlag {
		return listProviders(cmd, application)
	}

	if removeFlag != "" {
		return removeProvider(cmd, application, removeFlag)
	}

	if providerFlag != "" {
		return configureProvider(cmd, application, providerFlag)
	}

	return interactiveAuth(cmd, application)
}

func listProviders(cmd *cobra.Command, application *app.App) error {
	config, err := application.Config.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configured providers:")
	fmt.Fprintln(out)

	hasAny := false
	for _, p := range providerLabels {
		providerConfig, exists := config.Providers[p.name]
		if !exists || providerConfig == nil {
			continue
		}

		hasAny = true
		defaultMark := ""
		if config.Defaults.Provider == p.name {
			defaultMark = " (default)"
		}

		fmt.Fprintf(out, "  %s%s\n", p.label, defaultMark)
		if providerConfig.APIKey != "" {
			fmt.Fprintf(out, "    API Key: %s\n", maskAPIKey(providerConfig.APIKey))
		}
		if providerConfig.DefaultModel != "" {
			fmt.Fprintf(out, "    Model: %s\n", providerConfig.DefaultModel)
		}
		if providerConfig.QualityModel != "" {
			fmt.Fprintf(out, "    Quality model: %s\n", providerConfig.QualityModel)
		}
		if providerConfig.BaseURL != "" {
			fmt.Fprintf(out, "    Base URL: %s\n", providerConfig.BaseURL)
		}
		fmt.Fprintln(out)
	}

	if !hasAny {
		fmt.Fprintln(out, "  No providers configured.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Run 'novelvip auth' to configure a provider.")
	}

	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func removeProvider(cmd *cobra.Command, application *app.App, providerName string) error {
	if err := application.Config.RemoveProvider(providerName); err != nil {
		if errors.Is(err, app.ErrProviderNotFound) {
			return fmt.Errorf("provider '%s' is not configured", providerName)
		}
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Provider '%s' removed.\n", providerName)
	return nil
}

func configureProvider(cmd *cobra.Command, application *app.App, providerName string) error {
	switch providerName {
	case "openai", "gemini", "local":
		return setupProvider(cmd, application, providerName)
	default:
		return fmt.Errorf("unknown provider: %s (supported: openai, gemini, local)", providerName)
	}
}

func interactiveAuth(cmd *cobra.Command, application *app.App) error {
	var providerName string

	options := make([]huh.Option[string], len(providerLabels))
	for i, p := range providerLabels {
		options[i] = huh.NewOption(p.label, p.name)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select provider to configure").
				Options(options...).
				Value(&providerName),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("provider selection failed: %w", err)
	}

	return setupProvider(cmd, application, providerName)
}

func setupProvider(cmd *cobra.Command, application *app.App, providerName string) error {
	config, err := application.Config.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	providerConfig := config.Providers[providerName]
	if providerConfig == nil {
		providerConfig = &types.ProviderConfig{}
	}

	switch providerName {
	case "openai":
		err = setupOpenAI(providerConfig)
	case "gemini":
		err = setupGemini(providerConfig)
	case "local":
		err = setupLocal(cmd, providerConfig)
	}
	if err != nil {
		return err
	}

	config.Providers[providerName] = providerConfig

	setDefault := config.Defaults.Provider == providerName
	defaultForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Set as default provider?").
				Value(&setDefault),
		),
	)

	if err := defaultForm.Run(); err != nil {
		return fmt.Errorf("default selection failed: %w", err)
	}

	if setDefault {
		config.Defaults.Provider = providerName
	}

	if err := application.Config.SaveGlobalConfig(config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n✓ %s configured successfully\n", providerName)
	return nil
}

func setupOpenAI(config *types.ProviderConfig) error {
	var apiKey, model string

	currentKey := ""
	if config.APIKey != "" {
		currentKey = " (current: " + maskAPIKey(config.APIKey) + ")"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API Key"+currentKey).
				Description("Also used for read-aloud").
				Placeholder("sk-...").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewSelect[string]().
				Title("Default model").
				Options(
					huh.NewOption("GPT-4o Mini (recommended)", "gpt-4o-mini"),
					huh.NewOption("GPT-4o", "gpt-4o"),
					huh.NewOption("GPT-4.1", "gpt-4.1"),
					huh.NewOption("GPT-4.1 Mini", "gpt-4.1-mini"),
				).
				Value(&model),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("OpenAI setup failed: %w", err)
	}

	if apiKey != "" {
		config.APIKey = apiKey
	}
	if model != "" {
		config.DefaultModel = model
		config.QualityModel = "gpt-4o"
	}

	return nil
}

func setupGemini(config *types.ProviderConfig) error {
	var apiKey, model string

	currentKey := ""
	if config.APIKey != "" {
		currentKey = " (current: " + maskAPIKey(config.APIKey) + ")"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API Key"+currentKey).
				Placeholder("Get from ai.google.dev").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewSelect[string]().
				Title("Default model").
				Options(
					huh.NewOption("Gemini 2.5 Flash (recommended)", "gemini-2.5-flash"),
					huh.NewOption("Gemini 2.5 Pro", "gemini-2.5-pro"),
					huh.NewOption("Gemini 2.0 Flash", "gemini-2.0-flash"),
				).
				Value(&model),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("Gemini setup failed: %w", err)
	}

	if apiKey != "" {
		config.APIKey = apiKey
	}
	if model != "" {
		config.DefaultModel = model
		config.QualityModel = "gemini-2.5-pro"
	}

	return nil
}

func setupLocal(cmd *cobra.Command, config *types.ProviderConfig) error {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	setupForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Base URL").
				Description("An OpenAI compatible server such as Ollama or LM Studio").
				Placeholder("http://localhost:11434").
				Value(&baseURL),
		),
	)

	if err := setupForm.Run(); err != nil {
		return fmt.Errorf("Local setup failed: %w", err)
	}
	config.BaseURL = strings.TrimSpace(baseURL)

	out := cmd.OutOrStdout()
	models, err := fetchLocalModels(config.BaseURL)
	if err != nil {
		fmt.Fprintf(out, "\n⚠ Could not fetch models from %s: %v\n", config.BaseURL, err)
		fmt.Fprintln(out, "Please enter model name manually.")

		var model string
		manualForm := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Model name").
					Placeholder("llama3, qwen2.5, etc.").
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("model name is required")
						}
						return nil
					}).
					Value(&model),
			),
		)
		if err := manualForm.Run(); err != nil {
			return fmt.Errorf("model input failed: %w", err)
		}
		config.DefaultModel = strings.TrimSpace(model)
		return nil
	}

	if len(models) == 0 {
		fmt.Fprintln(out, "\n⚠ No models found. Please pull a model first:")
		fmt.Fprintln(out, "  ollama pull llama3.2")
		return fmt.Errorf("no models available")
	}

	var selectedModel string
	options := make([]huh.Option[string], len(models))
	for i, m := range models {
		options[i] = huh.NewOption(m.Display, m.Name)
	}

	modelForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select model").
				Options(options...).
				Value(&selectedModel),
		),
	)

	if err := modelForm.Run(); err != nil {
		return fmt.Errorf("model selection failed: %w", err)
	}

	config.DefaultModel = selectedModel
	return nil
}

type modelInfo struct {
	Name    string
	Display string
}

// fetchLocalModels lists the models of a local server. The OpenAI models
// endpoint is tried first, then Ollama's native one.
func fetchLocalModels(baseURL string) ([]modelInfo, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	client := &http.Client{Timeout: 5 * time.Second}

	endpoints := []struct {
		path  string
		parse func([]byte) ([]modelInfo, error)
	}{
		{"/v1/models", parseOpenAIModels},
		{"/api/tags", parseOllamaModels},
	}

	var errs []error
	for _, ep := range endpoints {
		body, err := getBody(client, baseURL+ep.path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		models, err := ep.parse(body)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ep.path, err))
			continue
		}
		return models, nil
	}
	return nil, errors.Join(errs...)
}

func getBody(client *http.Client, url string) ([]byte, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func parseOllamaModels(body []byte) ([]modelInfo, error) {
	var result struct {
		Models []struct {
			Name    string `json:"name"`
			Details struct {
				ParameterSize     string `json:"parameter_size"`
				QuantizationLevel string `json:"quantization_level"`
			} `json:"details"`
		} `json:"models"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	models := make([]modelInfo, len(result.Models))
	for i, m := range result.Models {
		display := m.Name
		if m.Details.ParameterSize != "" {
			display = fmt.Sprintf("%s (%s", m.Name, m.Details.ParameterSize)
			if m.Details.QuantizationLevel != "" {
				display += ", " + m.Details.QuantizationLevel
			}
			display += ")"
		}
		models[i] = modelInfo{Name: m.Name, Display: display}
	}
	return models, nil
}

func parseOpenAIModels(body []byte) ([]modelInfo, error) {
	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}

	models := make([]modelInfo, len(result.Data))
	for i, m := range result.Data {
		models[i] = modelInfo{Name: m.ID, Display: m.ID}
	}
	return models, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp(cmd, io.Discard)
		if err != nil {
			return err
		}
		defer application.Close()

		data, err := yaml.Marshal(maskedConfig(application.Global))
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", application.Config.Path())
		fmt.Fprintf(out, "# provider in use: %s\n", application.ProviderName())
		_, err = out.Write(data)
		return err
	},
}

// maskedConfig returns a copy of cfg with API keys masked.
func maskedConfig(cfg *types.GlobalConfig) *types.GlobalConfig {
	masked := *cfg
	masked.Providers = make(map[string]*types.ProviderConfig, len(cfg.Providers))

	for name, p := range cfg.Providers {
		if p == nil {
			continue
		}
		cp := *p
		if cp.APIKey != "" {
			cp.APIKey = maskAPIKey(cp.APIKey)
		}
		masked.Providers[name] = &cp
	}
	return &masked
}
