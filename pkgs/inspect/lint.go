package inspect

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/aledsdavies/cmakeparse/pkgs/ast"
	"github.com/aledsdavies/cmakeparse/pkgs/lexer"
)

// Finding is a lint result
type Finding struct {
	Command    string
	Span       lexer.Span
	Message    string
	Suggestion string // closest known command, if any
}

func (f Finding) String() string {
	s := fmt.Sprintf("%s: %s", f.Span.Start, f.Message)
	if f.Suggestion != "" {
		s += fmt.Sprintf(" (did you mean %q?)", f.Suggestion)
	}
	return s
}

// maxSuggestDistance bounds the edit distance of suggestions that are not
// found by subsequence matching.
const maxSuggestDistance = 2

// Lint reports invocations of commands that are neither CMake builtins nor
// declared in file with function() or macro(). Declarations may appear after
// their first use.
func Lint(file *ast.File) []Finding {
	if file == nil {
		return nil
	}

	known := slices.Clone(Builtins)
	for _, cmd := range Commands(file) {
		if (cmd.Name == "function" || cmd.Name == "macro") && len(cmd.Args) > 0 {
			known = append(known, strings.ToLower(cmd.Args[0]))
		}
	}
	slices.Sort(known)
	known = slices.Compact(known)

	var findings []Finding
	for _, cmd := range file.Commands {
		name := strings.ToLower(cmd.Name)
		if _, ok := slices.BinarySearch(known, name); ok {
			continue
		}
		findings = append(findings, Finding{
			Command:    cmd.Name,
			Span:       cmd.NameLoc,
			Message:    fmt.Sprintf("unknown command %q", cmd.Name),
			Suggestion: closestMatch(name, known),
		})
	}
	return findings
}

// closestMatch prefers names that contain target as a subsequence, then
// falls back to a small edit distance.
func closestMatch(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		best := slices.MinFunc(ranks, func(a, b fuzzy.Rank) int {
			return cmp.Compare(a.Distance, b.Distance)
		})
		return best.Target
	}

	best, bestDistance := "", maxSuggestDistance+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(target, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}

// Builtins lists the commands CMake provides, lower-cased
var Builtins = []string{
	// scripting
	"block", "break", "cmake_host_system_information", "cmake_language",
	"cmake_minimum_required", "cmake_parse_arguments", "cmake_path",
	"cmake_policy", "configure_file", "continue", "else", "elseif",
	"endblock", "endforeach", "endfunction", "endif", "endmacro", "endwhile",
	"execute_process", "file", "find_file", "find_library", "find_package",
	"find_path", "find_program", "foreach", "function", "get_cmake_property",
	"get_directory_property", "get_filename_component", "get_property", "if",
	"include", "include_guard", "list", "macro", "mark_as_advanced", "math",
	"message", "option", "return", "separate_arguments", "set",
	"set_directory_properties", "set_property", "site_name", "string",
	"unset", "variable_watch", "while",
	// project
	"add_compile_definitions", "add_compile_options", "add_custom_command",
	"add_custom_target", "add_definitions", "add_dependencies",
	"add_executable", "add_library", "add_link_options", "add_subdirectory",
	"add_test", "aux_source_directory", "build_command", "cmake_file_api",
	"create_test_sourcelist", "define_property", "enable_language",
	"enable_testing", "export", "fltk_wrap_ui", "get_source_file_property",
	"get_target_property", "get_test_property", "include_directories",
	"include_external_msproject", "include_regular_expression", "install",
	"link_directories", "link_libraries", "load_cache", "project",
	"remove_definitions", "set_source_files_properties",
	"set_target_properties", "set_tests_properties", "source_group",
	"target_compile_definitions", "target_compile_features",
	"target_compile_options", "target_include_directories",
	"target_link_directories", "target_link_libraries", "target_link_options",
	"target_precompile_headers", "target_sources", "try_compile", "try_run",
	// ctest
	"ctest_build", "ctest_configure", "ctest_coverage", "ctest_empty_binary_directory",
	"ctest_memcheck", "ctest_read_custom_files", "ctest_run_script",
	"ctest_sleep", "ctest_start", "ctest_submit", "ctest_test",
	"ctest_update", "ctest_upload",
	// commonly used modules
	"check_c_source_compiles", "check_cxx_source_compiles",
	"check_include_file", "check_symbol_exists", "cmake_dependent_option",
	"fetchcontent_declare", "fetchcontent_makeavailable",
	"fetchcontent_populate", "find_package_handle_standard_args",
	"gtest_discover_tests", "pkg_check_modules", "write_basic_package_version_file",
	"configure_package_config_file",
}
