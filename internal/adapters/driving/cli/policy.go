package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/triagem/internal/core/domain"
	"github.com/custodia-labs/triagem/internal/core/ports/driven"
	"github.com/custodia-labs/triagem/internal/core/rules"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect classification policies",
	Long: `Inspect the classification policy: its ordered rules, the instruction
handed to the oracle, and custom policy files.`,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in policies",
	Args:  cobra.NoArgs,
	RunE:  runPolicyList,
}

var policyShowCmd = &cobra.Command{
	Use:   "show [name|file]",
	Short: "Show the rules of a policy",
	Long: `Show the ordered rules of a policy. Without an argument the configured
policy is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPolicyShow,
}

var policyValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a policy file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyValidate,
}

var policyInstructionCmd = &cobra.Command{
	Use:   "instruction [name|file]",
	Short: "Print the instruction handed to the oracle",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPolicyInstruction,
}

func init() {
	policyCmd.AddCommand(policyListCmd)
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyValidateCmd)
	policyCmd.AddCommand(policyInstructionCmd)
	rootCmd.AddCommand(policyCmd)
}

func runPolicyList(cmd *cobra.Command, _ []string) error {
	for _, name := range rules.BuiltinNames() {
		p, err := rules.Builtin(name)
		if err != nil {
			return err
		}
		cmd.Printf("  %-12s %s\n", name, mutedStyle.Render(p.Description))
	}
	return nil
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	policy, err := resolvePolicy(args)
	if err != nil {
		return err
	}

	cmd.Println(titleStyle.Render("Policy " + policy.Name))
	if policy.Description != "" {
		cmd.Println(mutedStyle.Render(policy.Description))
	}
	cmd.Printf("Variant: %s\n", policy.Variant)
	minWords, maxWords := policy.WordBounds()
	if policy.Variant == domain.VariantSimple {
		cmd.Printf("Words: %d-%d\n", minWords, maxWords)
	}
	if policy.Guard.Enabled {
		cmd.Println("Guard: enabled")
	}
	cmd.Println()

	for i, r := range policy.OrderedRules() {
		cmd.Printf("[%d] %s %s\n", i+1, labelStyle.Render(r.Classification), mutedStyle.Render("("+r.ID+", "+r.Tier.String()+")"))
		cmd.Printf("    Trigger: %s\n", describePredicate(r.Predicate))
		cmd.Printf("    Action: %s\n", r.Action)
		for _, d := range r.Deadlines {
			cmd.Printf("    - %s: %d dias úteis\n", d.Name, d.Days)
		}
	}
	return nil
}

func runPolicyValidate(cmd *cobra.Command, args []string) error {
	if appRuntime == nil {
		return errors.New("policy loader not configured")
	}

	policy, err := appRuntime.Policy(domain.PolicySettings{File: args[0]})
	if err != nil {
		cmd.Println(errorStyle.Render("invalid: " + err.Error()))
		return err
	}
	cmd.Printf("%s %s (%d rules)\n", successStyle.Render("valid:"), policy.Name, len(policy.Rules))
	return nil
}

func runPolicyInstruction(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && triageService != nil {
		cmd.Println(triageService.Instruction())
		return nil
	}

	policy, err := resolvePolicy(args)
	if err != nil {
		return err
	}

	preamble := ""
	if appRuntime != nil {
		prompts, err := appRuntime.Prompts(configDir)
		if err != nil {
			return fmt.Errorf("failed to open prompts: %w", err)
		}
		if p, err := prompts.Load(driven.PromptTriagePreamble); err == nil {
			preamble = p
		}
	}
	cmd.Println(rules.CompileInstruction(policy, preamble))
	return nil
}

// resolvePolicy loads the policy named by args, or the configured one.
func resolvePolicy(args []string) (*domain.Policy, error) {
	if appRuntime == nil {
		if len(args) == 0 && triageService != nil && triageService.Policy() != nil {
			return triageService.Policy(), nil
		}
		if len(args) == 1 && !isPolicyFile(args[0]) {
			return rules.Builtin(args[0])
		}
		return nil, errors.New("policy loader not configured")
	}

	settings := appSettings.Policy
	if len(args) == 1 {
		settings = domain.PolicySettings{Name: args[0]}
		if isPolicyFile(args[0]) {
			settings = domain.PolicySettings{File: args[0]}
		}
	}
	return appRuntime.Policy(settings)
}

func isPolicyFile(arg string) bool {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".toml", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func describePredicate(p domain.TextPredicate) string {
	switch p.Kind {
	case domain.PredicatePhrases:
		return "contains " + strings.Join(quoteAll(p.Phrases), ", ")
	case domain.PredicateStructural:
		return "decision is " + string(p.Marker)
	case domain.PredicateExpr:
		return "expr " + p.Expr
	case domain.PredicateAlways:
		return "always"
	default:
		return string(p.Kind)
	}
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
