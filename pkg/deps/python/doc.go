// Package python implements the pypi handler.
//
// Manifests cover pip requirement files, pyproject.toml (PEP 621, PEP 735
// dependency groups and Poetry tables), setup.py, setup.cfg, Pipfile,
// Pipfile.lock, poetry.lock and conda environment files.
//
// Imports are read with tree-sitter. Absolute imports are first looked up
// as repository modules under each import root (the repository root, every
// Python manifest directory and their src/ layouts); anything else is an
// external import named by its top-level module. Relative imports resolve
// against the importing file's package.
package python
