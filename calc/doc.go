/*
 * doc.go, part of atomchain.
 *
 * Copyright 2024 Raul Mera <rmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package calc implements atomic models: objects that, given a structure,
//return its energy, the forces on its atoms and, for periodic systems, the
//stress on its cell. Machine-learning potentials run in an external
//program (the model bridge) that exchanges JSON documents with this
//package, the semiempirical GFN-xTB methods run through the xtb program,
//and simple pair potentials are computed in-process.
//
//The interface is kept as small as possible, so any program that can
//produce energies and forces can be plugged into the optimizers and the
//phonon code.
package calc
